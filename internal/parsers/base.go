// Package parsers reads the suggestion engine's two inputs: bank-entry CSV
// exports and the JSON reference bundle holding the ledger collections.
//
// CSV parsing tolerates per-line failures: a bad row is recorded in the
// ParseStats and skipped, so one malformed line never sinks a whole
// statement. Column names are resolved through per-format alias tables
// because every bank exports slightly different headers.
package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	sugerrors "lending-reconciliation-service/pkg/errors"
	"lending-reconciliation-service/pkg/logger"
)

// ParseError describes a failure on one CSV line.
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d (%s=%q): %s: %v", e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("line %d (%s=%q): %s", e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseConfig holds the CSV reader settings shared by entry formats.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool
}

// DefaultParseConfig returns the settings for a standard comma-separated
// export with a header row.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// baseParser carries the reader mechanics shared by the concrete parsers.
type baseParser struct {
	config *ParseConfig
	log    logger.Logger
}

func newBaseParser(config *ParseConfig, log logger.Logger) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	return &baseParser{
		config: config,
		log:    log.WithComponent("parser"),
	}
}

// parseState tracks position and header layout while reading one file.
type parseState struct {
	LineNumber int
	Headers    []string
	headerMap  map[string]int
}

// ColumnIndex resolves a header name case-insensitively, or -1.
func (ps *parseState) ColumnIndex(name string) int {
	if idx, ok := ps.headerMap[strings.ToLower(name)]; ok {
		return idx
	}
	return -1
}

// OpenFile opens a CSV file and returns a configured reader.
func (bp *baseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.log.WithError(err).WithField("path", filePath).Error("failed to open CSV file")
		code := sugerrors.CodeFileNotFound
		if os.IsPermission(err) {
			code = sugerrors.CodeFilePermission
		}
		return nil, nil, sugerrors.NewFileError(code, fmt.Sprintf("cannot open %s", filePath), err).
			WithContext("path", filePath)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file); err != nil {
			file.Close()
			return nil, nil, err
		}
		if _, err := file.Seek(0, 0); err != nil {
			file.Close()
			return nil, nil, sugerrors.NewFileError(sugerrors.CodeFileNotFound, "cannot rewind file", err)
		}
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	return file, reader, nil
}

// validateEncoding checks the first lines for valid UTF-8.
func (bp *baseParser) validateEncoding(file *os.File) error {
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() && line < 100 {
		line++
		if !utf8.Valid(scanner.Bytes()) {
			return sugerrors.NewParseError(sugerrors.CodeInvalidFormat,
				fmt.Sprintf("invalid UTF-8 at line %d", line), nil).
				WithSuggestion("save the file in UTF-8 encoding and retry")
		}
	}
	return scanner.Err()
}

// ReadHeaders consumes the header row (or installs the fallback when the
// format declares none) and verifies every required column resolves.
func (bp *baseParser) ReadHeaders(reader *csv.Reader, state *parseState, required []string) error {
	if bp.config.HasHeader {
		headers, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return sugerrors.NewParseError(sugerrors.CodeInvalidFormat, "file is empty", nil).
					WithSuggestion("the file must contain a header row and data rows")
			}
			return sugerrors.NewParseError(sugerrors.CodeInvalidFormat, "cannot read header row", err)
		}
		state.LineNumber++
		state.Headers = make([]string, len(headers))
		for i, h := range headers {
			state.Headers[i] = strings.TrimSpace(h)
		}
	} else {
		state.Headers = append([]string(nil), required...)
	}

	state.headerMap = make(map[string]int, len(state.Headers))
	for i, h := range state.Headers {
		state.headerMap[strings.ToLower(h)] = i
	}

	var missing []string
	for _, name := range required {
		if state.ColumnIndex(name) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		bp.log.WithFields(logger.Fields{
			"missing":   missing,
			"available": state.Headers,
		}).Error("required columns are missing")
		return sugerrors.NewParseError(sugerrors.CodeMissingColumn,
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")), nil).
			WithSuggestion(fmt.Sprintf("ensure the CSV contains these columns: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// ReadRecord returns the next non-empty record, or io.EOF at end of file.
func (bp *baseParser) ReadRecord(reader *csv.Reader, state *parseState) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			state.LineNumber++
			return nil, err
		}
		state.LineNumber++
		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		return record, nil
	}
}

// FieldValue retrieves a trimmed field by column name.
func (bp *baseParser) FieldValue(record []string, state *parseState, name string) (string, error) {
	idx := state.ColumnIndex(name)
	if idx == -1 {
		return "", fmt.Errorf("column %q not found", name)
	}
	if idx >= len(record) {
		return "", fmt.Errorf("column %q (index %d) missing from %d-field record", name, idx, len(record))
	}
	return strings.TrimSpace(record[idx]), nil
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ParseStats summarizes one parsing operation.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	Errors        []*ParseError
}

// AddError records a per-line failure.
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
}

// HasErrors reports whether any line failed.
func (ps *ParseStats) HasErrors() bool { return len(ps.Errors) > 0 }

// String returns a one-line summary.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, len(ps.Errors))
}

// SampleErrors returns up to max error messages for logs.
func (ps *ParseStats) SampleErrors(max int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}
	limit := len(ps.Errors)
	if max > 0 && max < limit {
		limit = max
	}
	samples := make([]string, 0, limit)
	for _, e := range ps.Errors[:limit] {
		samples = append(samples, e.Error())
	}
	return samples
}

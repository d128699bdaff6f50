package parsers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/pkg/logger"
)

// EntryFormat describes one bank's CSV export layout: which columns hold the
// entry fields and how dates and directions are encoded.
type EntryFormat struct {
	Name              string            `json:"name"`
	IDColumn          string            `json:"id_column"`
	DateColumn        string            `json:"date_column"`
	AmountColumn      string            `json:"amount_column"`
	DescriptionColumn string            `json:"description_column"`
	// DirectionColumn, when set, names a debit/credit indicator column used
	// to sign unsigned amounts.
	DirectionColumn string `json:"direction_column,omitempty"`
	// ReconciledColumn, when set, names an already-reconciled flag. The
	// column is optional per file; flagged rows parse normally and the
	// engine skips them.
	ReconciledColumn string            `json:"reconciled_column,omitempty"`
	DateFormat       string            `json:"date_format,omitempty"`
	HasHeader        bool              `json:"has_header"`
	Delimiter        rune              `json:"delimiter"`
	ColumnAliases    map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks the format names every mandatory column.
func (f *EntryFormat) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("format name cannot be empty")
	}
	for label, col := range map[string]string{
		"id":          f.IDColumn,
		"date":        f.DateColumn,
		"amount":      f.AmountColumn,
		"description": f.DescriptionColumn,
	} {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%s column cannot be empty", label)
		}
	}
	return nil
}

// ColumnName resolves a logical field to the format's column, aliases first.
func (f *EntryFormat) ColumnName(field string) string {
	if alias, ok := f.ColumnAliases[field]; ok {
		return alias
	}
	switch field {
	case "id":
		return f.IDColumn
	case "date":
		return f.DateColumn
	case "amount":
		return f.AmountColumn
	case "description":
		return f.DescriptionColumn
	case "direction":
		return f.DirectionColumn
	case "reconciled":
		return f.ReconciledColumn
	default:
		return field
	}
}

// Predefined entry formats for common exports.
var (
	// StandardEntryFormat covers the in-house export: signed amounts,
	// ISO dates, comma delimiter.
	StandardEntryFormat = &EntryFormat{
		Name:              "standard",
		IDColumn:          "id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
		ReconciledColumn:  "reconciled",
		DateFormat:        "2006-01-02",
		HasHeader:         true,
		Delimiter:         ',',
	}

	// IndicatorEntryFormat covers exports with unsigned amounts and a
	// separate debit/credit indicator column.
	IndicatorEntryFormat = &EntryFormat{
		Name:              "indicator",
		IDColumn:          "reference",
		DateColumn:        "value_date",
		AmountColumn:      "amount",
		DescriptionColumn: "details",
		DirectionColumn:   "dc_indicator",
		HasHeader:         true,
		Delimiter:         ';',
	}
)

// EntryFormatByName returns a predefined format, or nil.
func EntryFormatByName(name string) *EntryFormat {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard", "":
		return StandardEntryFormat
	case "indicator":
		return IndicatorEntryFormat
	default:
		return nil
	}
}

// DetectEntryFormat picks the predefined format whose mandatory columns all
// appear in the headers, falling back to the standard format.
func DetectEntryFormat(headers []string) *EntryFormat {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	for _, f := range []*EntryFormat{StandardEntryFormat, IndicatorEntryFormat} {
		if present[strings.ToLower(f.IDColumn)] &&
			present[strings.ToLower(f.AmountColumn)] &&
			present[strings.ToLower(f.DateColumn)] {
			return f
		}
	}
	return StandardEntryFormat
}

// EntryParser reads bank-entry CSV files in one format.
type EntryParser struct {
	*baseParser
	format *EntryFormat
}

// NewEntryParser builds a parser for the given format. A nil format means the
// standard export.
func NewEntryParser(format *EntryFormat, log logger.Logger) (*EntryParser, error) {
	if format == nil {
		format = StandardEntryFormat
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid entry format: %w", err)
	}
	cfg := DefaultParseConfig()
	cfg.HasHeader = format.HasHeader
	cfg.Delimiter = format.Delimiter
	return &EntryParser{
		baseParser: newBaseParser(cfg, log),
		format:     format,
	}, nil
}

// ParseEntries reads a whole statement file. Rows that fail to parse or
// validate are recorded in the stats and skipped.
func (p *EntryParser) ParseEntries(filePath string) ([]*models.BankEntry, *ParseStats, error) {
	file, reader, err := p.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	state := &parseState{}
	stats := &ParseStats{}

	required := []string{
		p.format.ColumnName("id"),
		p.format.ColumnName("date"),
		p.format.ColumnName("amount"),
		p.format.ColumnName("description"),
	}
	if err := p.ReadHeaders(reader, state, required); err != nil {
		return nil, stats, err
	}

	var entries []*models.BankEntry
	seen := make(map[string]int)

	for {
		record, err := p.ReadRecord(reader, state)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&ParseError{Line: state.LineNumber, Message: "failed to read record", Err: err})
			continue
		}
		stats.RecordsParsed++

		entry, perr := p.entryFromRecord(record, state)
		if perr != nil {
			stats.AddError(perr)
			continue
		}
		if err := entry.Validate(); err != nil {
			stats.AddError(&ParseError{Line: state.LineNumber, Field: "entry", Value: entry.ID,
				Message: "entry validation failed", Err: err})
			continue
		}
		if prev, dup := seen[entry.ID]; dup {
			stats.AddError(&ParseError{Line: state.LineNumber, Field: p.format.ColumnName("id"),
				Value: entry.ID, Message: fmt.Sprintf("duplicate entry ID, first seen at line %d", prev)})
			continue
		}
		seen[entry.ID] = state.LineNumber

		entries = append(entries, entry)
		stats.RecordsValid++
	}

	stats.TotalLines = state.LineNumber
	p.log.WithFields(logger.Fields{
		"path":    filePath,
		"format":  p.format.Name,
		"valid":   stats.RecordsValid,
		"errors":  len(stats.Errors),
		"samples": stats.SampleErrors(3),
	}).Info("parsed bank entries")

	return entries, stats, nil
}

func (p *EntryParser) entryFromRecord(record []string, state *parseState) (*models.BankEntry, *ParseError) {
	field := func(name string) (string, *ParseError) {
		v, err := p.FieldValue(record, state, p.format.ColumnName(name))
		if err != nil {
			return "", &ParseError{Line: state.LineNumber, Field: p.format.ColumnName(name),
				Message: "missing field", Err: err}
		}
		return v, nil
	}

	id, perr := field("id")
	if perr != nil {
		return nil, perr
	}
	dateStr, perr := field("date")
	if perr != nil {
		return nil, perr
	}
	amountStr, perr := field("amount")
	if perr != nil {
		return nil, perr
	}
	description, perr := field("description")
	if perr != nil {
		return nil, perr
	}

	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Line: state.LineNumber, Field: p.format.ColumnName("amount"),
			Value: amountStr, Message: "invalid amount", Err: err}
	}

	// Apply the indicator column's sign when the format carries one.
	if p.format.DirectionColumn != "" {
		indicator, perr := field("direction")
		if perr != nil {
			return nil, perr
		}
		switch strings.ToUpper(indicator) {
		case "D", "DR", "DEBIT":
			amount = amount.Abs().Neg()
		case "C", "CR", "CREDIT":
			amount = amount.Abs()
		default:
			return nil, &ParseError{Line: state.LineNumber, Field: p.format.DirectionColumn,
				Value: indicator, Message: "unknown debit/credit indicator"}
		}
	}

	date, err := parseDate(dateStr, p.format.DateFormat)
	if err != nil {
		return nil, &ParseError{Line: state.LineNumber, Field: p.format.ColumnName("date"),
			Value: dateStr, Message: "invalid date", Err: err}
	}

	// The reconciled flag is optional per file; only parse it when the
	// column is actually present.
	reconciled := false
	if col := p.format.ColumnName("reconciled"); col != "" && state.ColumnIndex(col) != -1 {
		v, perr := field("reconciled")
		if perr != nil {
			return nil, perr
		}
		reconciled, err = models.ParseBool(v)
		if err != nil {
			return nil, &ParseError{Line: state.LineNumber, Field: col,
				Value: v, Message: "invalid reconciled flag", Err: err}
		}
	}

	return &models.BankEntry{
		ID:          id,
		Amount:      amount,
		Date:        date,
		Description: description,
		Reconciled:  reconciled,
	}, nil
}

// parseDate tries the format's declared layout first, then the shared
// multi-format fallback.
func parseDate(s, layout string) (time.Time, error) {
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return models.ParseDate(s)
}

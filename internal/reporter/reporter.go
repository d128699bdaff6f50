// Package reporter renders suggestion runs for human and machine
// consumption.
//
// Three formats are supported: console (tabular text for terminals), JSON
// (for the review UI and downstream tooling), and CSV (for spreadsheets).
// Output ordering is stable for a given run so diffs between runs are
// meaningful.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"lending-reconciliation-service/internal/engine"
	"lending-reconciliation-service/internal/models"
)

// OutputFormat selects how a run is rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid reports whether the format is one of the supported renderings.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig controls the rendering of a suggestion run.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// MinConfidence hides suggestions below the threshold without
	// affecting what the engine accepted.
	MinConfidence float64 `json:"min_confidence"`

	IncludeUnmatched bool `json:"include_unmatched"`
	IncludeRecords   bool `json:"include_records"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns the console rendering with everything shown.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		MinConfidence:    0,
		IncludeUnmatched: true,
		IncludeRecords:   true,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate checks the configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be in [0,1], got %v", c.MinConfidence)
	}
	return nil
}

// ReportGenerator renders suggestion runs per its configuration.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator builds a generator; a nil config means the defaults.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the run to the writer. The entry slice provides
// amounts, dates, and descriptions for display; suggestions referencing
// entries missing from it render with blank detail columns.
func (rg *ReportGenerator) GenerateReport(result *engine.BatchResult, entries []*models.BankEntry, w io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	view := rg.buildView(result, entries)

	switch rg.config.Format {
	case FormatConsole:
		return rg.renderConsole(view, w)
	case FormatJSON:
		return rg.renderJSON(view, w)
	case FormatCSV:
		return rg.renderCSV(view, w)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// suggestionRow pairs a suggestion with its entry's display fields.
type suggestionRow struct {
	Suggestion *engine.Suggestion `json:"suggestion"`
	Amount     string             `json:"amount"`
	Date       string             `json:"date"`
	Desc       string             `json:"description"`

	date time.Time
}

// reportView is the assembled, ordered content of one report.
type reportView struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  string          `json:"duration"`
	Summary   *Summary        `json:"summary"`
	Rows      []suggestionRow `json:"suggestions"`
	Unmatched []string        `json:"unmatched,omitempty"`
}

// Summary carries the run's headline numbers.
type Summary struct {
	TotalEntries     int            `json:"total_entries"`
	Suggested        int            `json:"suggested"`
	GroupedCompanion int            `json:"grouped_companions"`
	Unmatched        int            `json:"unmatched"`
	ByType           map[string]int `json:"by_type"`
	ByMode           map[string]int `json:"by_mode"`
	ByMatcher        map[string]int `json:"by_matcher"`
	AvgConfidence    float64        `json:"avg_confidence"`
}

func (rg *ReportGenerator) buildView(result *engine.BatchResult, entries []*models.BankEntry) *reportView {
	byID := make(map[string]*models.BankEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	summary := &Summary{
		TotalEntries: result.Processed,
		Unmatched:    len(result.Unmatched),
		ByType:       make(map[string]int),
		ByMode:       make(map[string]int),
		ByMatcher:    make(map[string]int),
	}

	var rows []suggestionRow
	var confidenceSum float64
	for _, s := range result.Suggestions {
		summary.Suggested++
		summary.GroupedCompanion += len(s.GroupedEntryIDs)
		summary.ByType[string(s.Type)]++
		summary.ByMode[string(s.Mode)]++
		summary.ByMatcher[s.Matcher]++
		confidenceSum += s.Confidence

		if s.Confidence < rg.config.MinConfidence {
			continue
		}
		row := suggestionRow{Suggestion: s}
		if e := byID[s.EntryID]; e != nil {
			row.Amount = e.Amount.StringFixed(2)
			row.Date = e.Date.Format("2006-01-02")
			row.Desc = e.Description
			row.date = e.Date
		}
		rows = append(rows, row)
	}
	if summary.Suggested > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.Suggested)
	}

	// Oldest entry first, matching the order the engine processed them.
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].date.Equal(rows[j].date) {
			return rows[i].date.Before(rows[j].date)
		}
		return rows[i].Suggestion.EntryID < rows[j].Suggestion.EntryID
	})

	unmatched := append([]string(nil), result.Unmatched...)
	sort.Strings(unmatched)

	return &reportView{
		RunID:     result.RunID,
		StartedAt: result.StartedAt,
		Duration:  result.Duration.String(),
		Summary:   summary,
		Rows:      rows,
		Unmatched: unmatched,
	}
}

func (rg *ReportGenerator) renderConsole(view *reportView, w io.Writer) error {
	fmt.Fprintf(w, "RECONCILIATION SUGGESTIONS\n")
	fmt.Fprintf(w, "Run: %s\n", view.RunID)
	fmt.Fprintf(w, "Generated: %s\n", view.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %s\n\n", view.Duration)

	fmt.Fprintf(w, "=== SUMMARY ===\n")
	s := view.Summary
	fmt.Fprintf(w, "Entries Processed:   %d\n", s.TotalEntries)
	fmt.Fprintf(w, "Suggested:           %d (%.1f%%)\n", s.Suggested, percentage(s.Suggested, s.TotalEntries))
	if s.GroupedCompanion > 0 {
		fmt.Fprintf(w, "Grouped Companions:  %d\n", s.GroupedCompanion)
	}
	fmt.Fprintf(w, "Unmatched:           %d (%.1f%%)\n", s.Unmatched, percentage(s.Unmatched, s.TotalEntries))
	if s.Suggested > 0 {
		fmt.Fprintf(w, "Average Confidence:  %.2f\n", s.AvgConfidence)
	}
	fmt.Fprintf(w, "\n")

	if len(s.ByType) > 0 {
		fmt.Fprintf(w, "=== BY SUGGESTION TYPE ===\n")
		for _, k := range sortedCountKeys(s.ByType) {
			fmt.Fprintf(w, "  %-22s %d\n", k+":", s.ByType[k])
		}
		fmt.Fprintf(w, "\n")
	}
	if len(s.ByMatcher) > 0 {
		fmt.Fprintf(w, "=== BY MATCHER ===\n")
		for _, k := range sortedCountKeys(s.ByMatcher) {
			fmt.Fprintf(w, "  %-22s %d\n", k+":", s.ByMatcher[k])
		}
		fmt.Fprintf(w, "\n")
	}

	if len(view.Rows) > 0 {
		fmt.Fprintf(w, "=== SUGGESTIONS ===\n")
		for i, row := range view.Rows {
			sg := row.Suggestion
			fmt.Fprintf(w, "%d. Entry %s  %s  %s\n", i+1, sg.EntryID, row.Amount, row.Date)
			if row.Desc != "" {
				fmt.Fprintf(w, "   %q\n", row.Desc)
			}
			fmt.Fprintf(w, "   -> %s (%s, %.2f via %s)\n", sg.Type, sg.Mode, sg.Confidence, sg.Matcher)
			if sg.Reason != "" {
				fmt.Fprintf(w, "   %s\n", sg.Reason)
			}
			if rg.config.IncludeRecords && len(sg.Records) > 0 {
				refs := make([]string, 0, len(sg.Records))
				for _, r := range sg.Records {
					refs = append(refs, fmt.Sprintf("%s/%s", r.Family, r.ID))
				}
				fmt.Fprintf(w, "   records: %s\n", strings.Join(refs, ", "))
			}
			if len(sg.GroupedEntryIDs) > 0 {
				fmt.Fprintf(w, "   grouped entries: %s\n", strings.Join(sg.GroupedEntryIDs, ", "))
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if rg.config.IncludeUnmatched && len(view.Unmatched) > 0 {
		fmt.Fprintf(w, "=== UNMATCHED ENTRIES ===\n")
		for i, id := range view.Unmatched {
			fmt.Fprintf(w, "  %s\n", id)
			if i >= 19 && len(view.Unmatched) > 20 {
				fmt.Fprintf(w, "  ... and %d more\n", len(view.Unmatched)-20)
				break
			}
		}
	}
	return nil
}

func (rg *ReportGenerator) renderJSON(view *reportView, w io.Writer) error {
	if !rg.config.IncludeUnmatched {
		view.Unmatched = nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func (rg *ReportGenerator) renderCSV(view *reportView, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = rg.config.CSVDelimiter
	defer cw.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"entry_id", "amount", "date", "description",
			"status", "type", "match_mode", "confidence", "matcher",
			"records", "grouped_entries", "reason",
		}
		if err := cw.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, row := range view.Rows {
		sg := row.Suggestion
		refs := make([]string, 0, len(sg.Records))
		for _, r := range sg.Records {
			refs = append(refs, fmt.Sprintf("%s/%s", r.Family, r.ID))
		}
		record := []string{
			sg.EntryID, row.Amount, row.Date, row.Desc,
			"suggested", string(sg.Type), string(sg.Mode),
			fmt.Sprintf("%.4f", sg.Confidence), sg.Matcher,
			strings.Join(refs, "; "), strings.Join(sg.GroupedEntryIDs, "; "), sg.Reason,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write suggestion record: %w", err)
		}
	}

	if rg.config.IncludeUnmatched {
		for _, id := range view.Unmatched {
			record := []string{id, "", "", "", "unmatched", "", "", "", "", "", "", ""}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write unmatched record: %w", err)
			}
		}
	}
	return nil
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lending-reconciliation-service/internal/engine"
	"lending-reconciliation-service/internal/matchers"
	"lending-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func createReportResult() (*engine.BatchResult, []*models.BankEntry) {
	day := func(d int) time.Time {
		return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
	}
	entries := []*models.BankEntry{
		{ID: "e-1", Amount: decimal.RequireFromString("1500.00"), Date: day(2),
			Description: "transfer Aulia Rahman LN-2026-001"},
		{ID: "e-2", Amount: decimal.RequireFromString("1800.00"), Date: day(1),
			Description: "Bima Putra instalment part one"},
	}
	result := &engine.BatchResult{
		RunID:     "run-test",
		StartedAt: day(10),
		Duration:  125 * time.Millisecond,
		Processed: 4,
		Suggestions: map[string]*engine.Suggestion{
			"e-1": {
				EntryID:    "e-1",
				Type:       models.MatchLoanRepayment,
				Mode:       matchers.ModeMatch,
				Confidence: 0.97,
				Matcher:    "loan_repayment",
				Reason:     "amount and reference match",
				Records:    []matchers.RecordRef{{Family: matchers.FamilyLoanTransaction, ID: "lt-1"}},
			},
			"e-2": {
				EntryID:         "e-2",
				Type:            models.MatchLoanRepayment,
				Mode:            matchers.ModeGroupedRepayment,
				Confidence:      0.92,
				Matcher:         "loan_repayment",
				Records:         []matchers.RecordRef{{Family: matchers.FamilyLoanTransaction, ID: "lt-2"}},
				GroupedEntryIDs: []string{"e-3"},
			},
		},
		Unmatched: []string{"e-9", "e-5"},
	}
	return result, entries
}

func createGenerator(t *testing.T, config *ReportConfig) *ReportGenerator {
	t.Helper()
	rg, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator: %v", err)
	}
	return rg
}

func TestReportConsole(t *testing.T) {
	result, entries := createReportResult()
	var buf bytes.Buffer

	if err := createGenerator(t, nil).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-test",
		"Entries Processed:   4",
		"Grouped Companions:  1",
		"loan_transaction/lt-1",
		"grouped entries: e-3",
		"=== UNMATCHED ENTRIES ===",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}

	// Oldest entry renders first.
	first := strings.Index(out, "Entry e-2")
	second := strings.Index(out, "Entry e-1")
	if first == -1 || second == -1 || first > second {
		t.Errorf("suggestions should be ordered by entry date:\n%s", out)
	}

	// Unmatched IDs render sorted.
	if strings.Index(out, "e-5") > strings.Index(out, "e-9") {
		t.Errorf("unmatched entries should be sorted:\n%s", out)
	}
}

func TestReportConsoleExcludesRecords(t *testing.T) {
	result, entries := createReportResult()
	config := DefaultReportConfig()
	config.IncludeRecords = false
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if strings.Contains(buf.String(), "records:") {
		t.Error("record references should be omitted when disabled")
	}
}

func TestReportJSON(t *testing.T) {
	result, entries := createReportResult()
	config := DefaultReportConfig()
	config.Format = FormatJSON
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	var view struct {
		RunID   string `json:"run_id"`
		Summary struct {
			TotalEntries  int     `json:"total_entries"`
			Suggested     int     `json:"suggested"`
			Unmatched     int     `json:"unmatched"`
			AvgConfidence float64 `json:"avg_confidence"`
		} `json:"summary"`
		Suggestions []struct {
			Suggestion *engine.Suggestion `json:"suggestion"`
			Amount     string             `json:"amount"`
			Date       string             `json:"date"`
		} `json:"suggestions"`
		Unmatched []string `json:"unmatched"`
	}
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	if view.RunID != "run-test" {
		t.Errorf("run_id = %q", view.RunID)
	}
	if view.Summary.TotalEntries != 4 || view.Summary.Suggested != 2 || view.Summary.Unmatched != 2 {
		t.Errorf("summary = %+v", view.Summary)
	}
	if got := view.Summary.AvgConfidence; got < 0.944 || got > 0.946 {
		t.Errorf("avg confidence = %v, want 0.945", got)
	}
	if len(view.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestion rows, got %d", len(view.Suggestions))
	}
	if view.Suggestions[0].Suggestion.EntryID != "e-2" {
		t.Errorf("rows should be date-ordered, first is %s", view.Suggestions[0].Suggestion.EntryID)
	}
	if view.Suggestions[0].Amount != "1800.00" || view.Suggestions[0].Date != "2026-03-01" {
		t.Errorf("entry details not joined: %+v", view.Suggestions[0])
	}
	if len(view.Unmatched) != 2 || view.Unmatched[0] != "e-5" {
		t.Errorf("unmatched = %v", view.Unmatched)
	}
}

func TestReportJSONExcludesUnmatched(t *testing.T) {
	result, entries := createReportResult()
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeUnmatched = false
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if strings.Contains(buf.String(), `"unmatched":`) {
		t.Error("unmatched list should be omitted when disabled")
	}
}

func TestReportCSV(t *testing.T) {
	result, entries := createReportResult()
	config := DefaultReportConfig()
	config.Format = FormatCSV
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}
	// Header + 2 suggestions + 2 unmatched.
	if len(records) != 5 {
		t.Fatalf("expected 5 CSV rows, got %d", len(records))
	}
	if records[0][0] != "entry_id" || records[0][4] != "status" {
		t.Errorf("unexpected headers: %v", records[0])
	}

	row := records[1]
	if row[0] != "e-2" || row[4] != "suggested" || row[6] != "grouped_repayment" {
		t.Errorf("first suggestion row = %v", row)
	}
	if row[7] != "0.9200" {
		t.Errorf("confidence column = %q", row[7])
	}
	if row[9] != "loan_transaction/lt-2" || row[10] != "e-3" {
		t.Errorf("records/grouped columns = %q, %q", row[9], row[10])
	}
	if records[3][0] != "e-5" || records[3][4] != "unmatched" {
		t.Errorf("first unmatched row = %v", records[3])
	}
}

func TestReportMinConfidenceFilter(t *testing.T) {
	result, entries := createReportResult()
	config := DefaultReportConfig()
	config.MinConfidence = 0.95
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, entries, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Entry e-1") {
		t.Error("the high-confidence suggestion should still render")
	}
	if strings.Contains(out, "Entry e-2") {
		t.Error("suggestions below the display threshold should be hidden")
	}
	// The summary reflects what the engine accepted, not what is displayed.
	if !strings.Contains(out, "Suggested:           2") {
		t.Errorf("summary should count hidden suggestions:\n%s", out)
	}
}

func TestReportUnknownEntryRendersBlankDetails(t *testing.T) {
	result, _ := createReportResult()
	config := DefaultReportConfig()
	config.Format = FormatCSV
	var buf bytes.Buffer

	if err := createGenerator(t, config).GenerateReport(result, nil, &buf); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if records[1][1] != "" || records[1][2] != "" {
		t.Errorf("missing entries should render blank details, got %v", records[1])
	}
}

func TestReportNilResult(t *testing.T) {
	var buf bytes.Buffer
	if err := createGenerator(t, nil).GenerateReport(nil, nil, &buf); err == nil {
		t.Error("a nil result should be rejected")
	}
}

func TestReportConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReportConfig)
		wantErr bool
	}{
		{"defaults", func(*ReportConfig) {}, false},
		{"unknown format", func(c *ReportConfig) { c.Format = "xml" }, true},
		{"negative min confidence", func(c *ReportConfig) { c.MinConfidence = -0.1 }, true},
		{"min confidence above one", func(c *ReportConfig) { c.MinConfidence = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			tt.mutate(config)
			if err := config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

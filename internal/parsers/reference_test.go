package parsers

import (
	"path/filepath"
	"testing"

	sugerrors "lending-reconciliation-service/pkg/errors"
	"lending-reconciliation-service/pkg/logger"
)

const validBundle = `{
  "loans": [
    {"id": "l-1", "borrower_id": "b-1", "reference": "LN-2026-001", "active": true}
  ],
  "borrowers": [
    {"id": "b-1", "name": "Aulia Rahman", "email": "aulia@example.com"}
  ],
  "loan_transactions": [
    {"id": "lt-1", "loan_id": "l-1", "type": "repayment", "amount": "1500.00", "date": "2026-03-01T00:00:00Z"}
  ],
  "investors": [
    {"id": "inv-1", "name": "Dewi Lestari", "email": "dewi@example.com"}
  ],
  "investor_transactions": [
    {"id": "it-1", "investor_id": "inv-1", "type": "capital_in", "amount": "5000.00", "date": "2026-03-02T00:00:00Z"}
  ],
  "interest_entries": [
    {"id": "ie-1", "investor_id": "inv-1", "type": "debit", "amount": "150.00", "date": "2026-03-03T00:00:00Z"}
  ],
  "expenses": [
    {"id": "x-1", "expense_type_id": "xt-1", "amount": "1200.00", "date": "2026-03-04T00:00:00Z"}
  ],
  "expense_types": [
    {"id": "xt-1", "name": "Office Rent"}
  ],
  "patterns": [
    {"id": "p-1", "template": "monthly platform fee", "entry_filter": "debit",
     "match_type": "expense", "expense_type_id": "xt-1", "usage_count": 10, "confidence": 0.8}
  ]
}`

func TestLoadReferenceBundle(t *testing.T) {
	path := writeTempFile(t, "reference.json", validBundle)

	dataset, err := LoadReferenceBundle(path, logger.Discard())
	if err != nil {
		t.Fatalf("LoadReferenceBundle: %v", err)
	}

	if len(dataset.Loans) != 1 || len(dataset.Borrowers) != 1 {
		t.Errorf("loan book not loaded: %d loans, %d borrowers", len(dataset.Loans), len(dataset.Borrowers))
	}
	if len(dataset.LoanTransactions) != 1 || len(dataset.InvestorTransactions) != 1 ||
		len(dataset.InterestEntries) != 1 || len(dataset.Expenses) != 1 || len(dataset.Patterns) != 1 {
		t.Error("ledger collections not loaded")
	}
	if dataset.Entries != nil {
		t.Error("bank entries come from the statement file, not the bundle")
	}
	if dataset.LoanTransactions[0].Amount.IsZero() {
		t.Error("decimal amounts should survive JSON decoding")
	}
}

func TestLoadReferenceBundleEmptyBundle(t *testing.T) {
	path := writeTempFile(t, "reference.json", `{}`)

	dataset, err := LoadReferenceBundle(path, logger.Discard())
	if err != nil {
		t.Fatalf("every collection is optional: %v", err)
	}
	if dataset == nil || len(dataset.Loans) != 0 {
		t.Error("an empty bundle should yield an empty dataset")
	}
}

func TestLoadReferenceBundleBadJSON(t *testing.T) {
	path := writeTempFile(t, "reference.json", `{"loans": [`)

	_, err := LoadReferenceBundle(path, logger.Discard())
	if err == nil {
		t.Fatal("truncated JSON should fail")
	}
	se, ok := sugerrors.AsSuggesterError(err)
	if !ok || se.Code != sugerrors.CodeInvalidFormat {
		t.Errorf("expected %s, got %v", sugerrors.CodeInvalidFormat, err)
	}
}

func TestLoadReferenceBundleMissingFile(t *testing.T) {
	_, err := LoadReferenceBundle(filepath.Join(t.TempDir(), "missing.json"), logger.Discard())
	if err == nil {
		t.Fatal("a missing file should fail")
	}
	if sugerrors.GetCategory(err) != sugerrors.CategoryFile {
		t.Errorf("expected a file error, got %v", err)
	}
}

func TestLoadReferenceBundleReferentialChecks(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "loan transaction references unknown loan",
			content: `{
  "loan_transactions": [
    {"id": "lt-1", "loan_id": "l-missing", "type": "repayment", "amount": "100.00", "date": "2026-03-01T00:00:00Z"}
  ]
}`,
		},
		{
			name: "investor transaction references unknown investor",
			content: `{
  "investor_transactions": [
    {"id": "it-1", "investor_id": "inv-missing", "type": "capital_in", "amount": "100.00", "date": "2026-03-01T00:00:00Z"}
  ]
}`,
		},
		{
			name: "interest entry references unknown investor",
			content: `{
  "interest_entries": [
    {"id": "ie-1", "investor_id": "inv-missing", "type": "debit", "amount": "10.00", "date": "2026-03-01T00:00:00Z"}
  ]
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "reference.json", tt.content)
			_, err := LoadReferenceBundle(path, logger.Discard())
			if err == nil {
				t.Fatal("broken references should fail the bundle")
			}
			se, ok := sugerrors.AsSuggesterError(err)
			if !ok || se.Code != sugerrors.CodeInvalidRecord {
				t.Errorf("expected %s, got %v", sugerrors.CodeInvalidRecord, err)
			}
		})
	}
}

func TestLoadReferenceBundleInvalidRecord(t *testing.T) {
	path := writeTempFile(t, "reference.json", `{
  "loans": [{"id": "l-1", "borrower_id": "b-1", "reference": "LN-1", "active": true}],
  "loan_transactions": [
    {"id": "lt-1", "loan_id": "l-1", "type": "repayment", "amount": "0", "date": "2026-03-01T00:00:00Z"}
  ]
}`)

	_, err := LoadReferenceBundle(path, logger.Discard())
	if err == nil {
		t.Fatal("a zero-amount transaction should fail validation")
	}
	if sugerrors.GetCategory(err) != sugerrors.CategoryValidation {
		t.Errorf("expected a validation error, got %v", err)
	}
}

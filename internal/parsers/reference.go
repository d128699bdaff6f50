package parsers

import (
	"encoding/json"
	"fmt"
	"os"

	"lending-reconciliation-service/internal/matchers"
	"lending-reconciliation-service/internal/models"
	sugerrors "lending-reconciliation-service/pkg/errors"
	"lending-reconciliation-service/pkg/logger"
)

// ReferenceBundle is the JSON shape of the ledger export the engine matches
// against. Every collection is optional; a missing key just means the run has
// none of that record kind.
type ReferenceBundle struct {
	Loans                []*models.Loan                  `json:"loans"`
	Borrowers            []*models.Borrower              `json:"borrowers"`
	LoanTransactions     []*models.LoanTransaction       `json:"loan_transactions"`
	Investors            []*models.Investor              `json:"investors"`
	InvestorTransactions []*models.InvestorTransaction   `json:"investor_transactions"`
	InterestEntries      []*models.InvestorInterestEntry `json:"interest_entries"`
	Expenses             []*models.Expense               `json:"expenses"`
	ExpenseTypes         []*models.ExpenseType           `json:"expense_types"`
	Patterns             []*models.Pattern               `json:"patterns"`
}

// LoadReferenceBundle reads and validates the ledger export, returning the
// collections as a dataset the engine can run over. Bank entries are not part
// of the bundle; the caller fills them in from the statement file.
func LoadReferenceBundle(filePath string, log logger.Logger) (*matchers.Dataset, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.WithComponent("reference")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		code := sugerrors.CodeFileNotFound
		if os.IsPermission(err) {
			code = sugerrors.CodeFilePermission
		}
		return nil, sugerrors.NewFileError(code, fmt.Sprintf("cannot read %s", filePath), err).
			WithContext("path", filePath)
	}

	var bundle ReferenceBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, sugerrors.NewParseError(sugerrors.CodeInvalidFormat,
			fmt.Sprintf("invalid reference bundle %s", filePath), err).
			WithSuggestion("the reference file must be a JSON object of record collections")
	}

	if err := validateBundle(&bundle); err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"loans":                 len(bundle.Loans),
		"borrowers":             len(bundle.Borrowers),
		"loan_transactions":     len(bundle.LoanTransactions),
		"investors":             len(bundle.Investors),
		"investor_transactions": len(bundle.InvestorTransactions),
		"interest_entries":      len(bundle.InterestEntries),
		"expenses":              len(bundle.Expenses),
		"expense_types":         len(bundle.ExpenseTypes),
		"patterns":              len(bundle.Patterns),
	}).Info("loaded reference bundle")

	return &matchers.Dataset{
		Loans:                bundle.Loans,
		Borrowers:            bundle.Borrowers,
		LoanTransactions:     bundle.LoanTransactions,
		Investors:            bundle.Investors,
		InvestorTransactions: bundle.InvestorTransactions,
		InterestEntries:      bundle.InterestEntries,
		Expenses:             bundle.Expenses,
		ExpenseTypes:         bundle.ExpenseTypes,
		Patterns:             bundle.Patterns,
	}, nil
}

// validateBundle checks per-record invariants and referential integrity
// between collections. A broken reference bundle fails the whole run; unlike
// CSV lines there is no sensible per-record recovery.
func validateBundle(b *ReferenceBundle) error {
	invalid := func(kind, id string, err error) error {
		return sugerrors.NewValidationError(sugerrors.CodeInvalidRecord,
			fmt.Sprintf("invalid %s %q", kind, id), err)
	}

	loanIDs := make(map[string]bool, len(b.Loans))
	for _, l := range b.Loans {
		if l.ID == "" {
			return invalid("loan", "", fmt.Errorf("missing ID"))
		}
		loanIDs[l.ID] = true
	}
	investorIDs := make(map[string]bool, len(b.Investors))
	for _, inv := range b.Investors {
		if inv.ID == "" {
			return invalid("investor", "", fmt.Errorf("missing ID"))
		}
		investorIDs[inv.ID] = true
	}

	for _, t := range b.LoanTransactions {
		if err := t.Validate(); err != nil {
			return invalid("loan transaction", t.ID, err)
		}
		if !loanIDs[t.LoanID] {
			return invalid("loan transaction", t.ID, fmt.Errorf("unknown loan %q", t.LoanID))
		}
	}
	for _, t := range b.InvestorTransactions {
		if err := t.Validate(); err != nil {
			return invalid("investor transaction", t.ID, err)
		}
		if !investorIDs[t.InvestorID] {
			return invalid("investor transaction", t.ID, fmt.Errorf("unknown investor %q", t.InvestorID))
		}
	}
	for _, ie := range b.InterestEntries {
		if err := ie.Validate(); err != nil {
			return invalid("interest entry", ie.ID, err)
		}
		if !investorIDs[ie.InvestorID] {
			return invalid("interest entry", ie.ID, fmt.Errorf("unknown investor %q", ie.InvestorID))
		}
	}
	for _, x := range b.Expenses {
		if err := x.Validate(); err != nil {
			return invalid("expense", x.ID, err)
		}
	}
	for _, p := range b.Patterns {
		if err := p.Validate(); err != nil {
			return invalid("pattern", p.ID, err)
		}
	}
	return nil
}

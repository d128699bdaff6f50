package matchers

import (
	"strings"

	"lending-reconciliation-service/internal/models"
)

// Dataset is the read-only input to one batch run: the unreconciled bank
// entries plus every reference collection the strategies consult. The engine
// never writes to it.
type Dataset struct {
	Entries              []*models.BankEntry
	LoanTransactions     []*models.LoanTransaction
	Loans                []*models.Loan
	Borrowers            []*models.Borrower
	Investors            []*models.Investor
	InvestorTransactions []*models.InvestorTransaction
	InterestEntries      []*models.InvestorInterestEntry
	Expenses             []*models.Expense
	ExpenseTypes         []*models.ExpenseType
	Patterns             []*models.Pattern
}

// Context is what strategies see during a run: the dataset with lookup maps
// built on top, the engine configuration, and the per-run claim state.
// Strategies read it; only the batch runner advances Claims.
type Context struct {
	Config *Config
	Claims *Claims

	data *Dataset

	loans        map[string]*models.Loan
	borrowers    map[string]*models.Borrower
	investors    map[string]*models.Investor
	expenseTypes map[string]*models.ExpenseType
}

// NewContext builds a run context over a dataset. A nil config falls back to
// the defaults; the claim set starts empty.
func NewContext(data *Dataset, cfg *Config) *Context {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx := &Context{
		Config:       cfg,
		Claims:       NewClaims(),
		data:         data,
		loans:        make(map[string]*models.Loan, len(data.Loans)),
		borrowers:    make(map[string]*models.Borrower, len(data.Borrowers)),
		investors:    make(map[string]*models.Investor, len(data.Investors)),
		expenseTypes: make(map[string]*models.ExpenseType, len(data.ExpenseTypes)),
	}
	for _, l := range data.Loans {
		ctx.loans[l.ID] = l
	}
	for _, b := range data.Borrowers {
		ctx.borrowers[b.ID] = b
	}
	for _, inv := range data.Investors {
		ctx.investors[inv.ID] = inv
	}
	for _, et := range data.ExpenseTypes {
		ctx.expenseTypes[et.ID] = et
	}
	return ctx
}

// Entries returns the full bank-entry set supplied to the run.
func (ctx *Context) Entries() []*models.BankEntry { return ctx.data.Entries }

// Loans returns all loans.
func (ctx *Context) Loans() []*models.Loan { return ctx.data.Loans }

// Patterns returns the learned patterns.
func (ctx *Context) Patterns() []*models.Pattern { return ctx.data.Patterns }

// Loan looks up a loan by ID, or nil.
func (ctx *Context) Loan(id string) *models.Loan { return ctx.loans[id] }

// Investor looks up an investor by ID, or nil.
func (ctx *Context) Investor(id string) *models.Investor { return ctx.investors[id] }

// BorrowerForLoan resolves the borrower behind a loan, or nil when either
// lookup misses.
func (ctx *Context) BorrowerForLoan(loanID string) *models.Borrower {
	loan := ctx.loans[loanID]
	if loan == nil {
		return nil
	}
	return ctx.borrowers[loan.BorrowerID]
}

// BorrowerName resolves a display name for the borrower behind a loan.
// Missing lookups degrade to a placeholder rather than failing the run.
func (ctx *Context) BorrowerName(loanID string) string {
	if b := ctx.BorrowerForLoan(loanID); b != nil && b.Name != "" {
		return b.Name
	}
	return "unknown borrower"
}

// BorrowerEmail resolves the normalized contact email behind a loan, or "".
func (ctx *Context) BorrowerEmail(loanID string) string {
	if b := ctx.BorrowerForLoan(loanID); b != nil {
		return strings.ToLower(strings.TrimSpace(b.Email))
	}
	return ""
}

// LoanReference returns the loan's human reference, or "".
func (ctx *Context) LoanReference(loanID string) string {
	if l := ctx.loans[loanID]; l != nil {
		return l.Reference
	}
	return ""
}

// InvestorName resolves a display name for an investor, with a placeholder
// for missing lookups.
func (ctx *Context) InvestorName(id string) string {
	if inv := ctx.investors[id]; inv != nil && inv.Name != "" {
		return inv.Name
	}
	return "unknown investor"
}

// ExpenseTypeName resolves a display name for an expense type, with a
// placeholder for missing lookups.
func (ctx *Context) ExpenseTypeName(id string) string {
	if et := ctx.expenseTypes[id]; et != nil && et.Name != "" {
		return et.Name
	}
	return "unknown expense type"
}

// LoanTransactions returns the eligible, unclaimed loan transactions of the
// given type. Soft-deleted and reconciled transactions never qualify.
func (ctx *Context) LoanTransactions(txType models.LoanTransactionType) []*models.LoanTransaction {
	var out []*models.LoanTransaction
	for _, t := range ctx.data.LoanTransactions {
		if t.Type != txType || !t.Eligible() {
			continue
		}
		if ctx.Claims.Claimed(RecordRef{Family: FamilyLoanTransaction, ID: t.ID}) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// InvestorTransactions returns the unclaimed investor transactions of the
// given type.
func (ctx *Context) InvestorTransactions(txType models.InvestorTransactionType) []*models.InvestorTransaction {
	var out []*models.InvestorTransaction
	for _, t := range ctx.data.InvestorTransactions {
		if t.Type != txType {
			continue
		}
		if ctx.Claims.Claimed(RecordRef{Family: FamilyInvestorTransaction, ID: t.ID}) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// InterestWithdrawals returns the unclaimed debit-side interest entries; only
// those represent money leaving the book.
func (ctx *Context) InterestWithdrawals() []*models.InvestorInterestEntry {
	var out []*models.InvestorInterestEntry
	for _, ie := range ctx.data.InterestEntries {
		if !ie.IsWithdrawal() {
			continue
		}
		if ctx.Claims.Claimed(RecordRef{Family: FamilyInterestEntry, ID: ie.ID}) {
			continue
		}
		out = append(out, ie)
	}
	return out
}

// OpenExpenses returns the unreconciled, unclaimed expenses.
func (ctx *Context) OpenExpenses() []*models.Expense {
	var out []*models.Expense
	for _, x := range ctx.data.Expenses {
		if x.Reconciled {
			continue
		}
		if ctx.Claims.Claimed(RecordRef{Family: FamilyExpense, ID: x.ID}) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// CompanionEntries returns the other unreconciled, unclaimed bank entries of
// the given direction, as subset-sum material around an anchor entry.
func (ctx *Context) CompanionEntries(anchorID string, direction models.EntryDirection) []*models.BankEntry {
	var out []*models.BankEntry
	for _, e := range ctx.data.Entries {
		if e.ID == anchorID || e.Reconciled || e.Direction() != direction {
			continue
		}
		if ctx.Claims.EntryClaimed(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

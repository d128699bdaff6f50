// Package models defines the domain records the suggestion engine operates on:
// bank entries imported from statements, the ledger record families they can be
// reconciled against (loan transactions, investor transactions, investor
// interest entries, expenses), the parties used for name matching (borrowers,
// investors), and learned description patterns.
//
// All monetary amounts are decimal.Decimal. Records are treated as immutable by
// the engine; validation happens at the parsing boundary, not during matching.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection classifies a bank entry by the sign of its amount.
type EntryDirection string

const (
	// DirectionCredit is an incoming amount (positive).
	DirectionCredit EntryDirection = "credit"
	// DirectionDebit is an outgoing amount (negative).
	DirectionDebit EntryDirection = "debit"
)

// BankEntry is one imported bank-statement line. Amount is signed: positive
// for credits, negative for debits. Reconciled entries are never re-matched.
type BankEntry struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Reconciled  bool            `json:"reconciled"`
}

// Direction returns whether the entry is a credit or a debit.
func (e *BankEntry) Direction() EntryDirection {
	if e.Amount.IsNegative() {
		return DirectionDebit
	}
	return DirectionCredit
}

// IsCredit reports whether the entry is incoming money.
func (e *BankEntry) IsCredit() bool { return !e.Amount.IsNegative() }

// IsDebit reports whether the entry is outgoing money.
func (e *BankEntry) IsDebit() bool { return e.Amount.IsNegative() }

// AbsAmount returns the unsigned amount of the entry.
func (e *BankEntry) AbsAmount() decimal.Decimal { return e.Amount.Abs() }

// Validate performs basic validation on the BankEntry.
func (e *BankEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("bank entry ID cannot be empty")
	}
	if e.Amount.IsZero() {
		return fmt.Errorf("bank entry amount cannot be zero")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("bank entry date cannot be zero")
	}
	return nil
}

// String returns a string representation of the BankEntry.
func (e *BankEntry) String() string {
	return fmt.Sprintf("BankEntry{ID: %s, Amount: %s, Date: %s, Desc: %q}",
		e.ID, e.Amount.String(), e.Date.Format("2006-01-02"), e.Description)
}

// LoanTransactionType distinguishes money leaving the book (disbursement)
// from money coming back (repayment).
type LoanTransactionType string

const (
	LoanDisbursement LoanTransactionType = "disbursement"
	LoanRepayment    LoanTransactionType = "repayment"
)

// IsValid checks if the loan transaction type is valid.
func (t LoanTransactionType) IsValid() bool {
	return t == LoanDisbursement || t == LoanRepayment
}

// LoanTransaction is a ledger record on a loan. Soft-deleted and
// already-reconciled transactions are excluded from candidacy by the engine.
type LoanTransaction struct {
	ID         string              `json:"id"`
	LoanID     string              `json:"loan_id"`
	Type       LoanTransactionType `json:"type"`
	Amount     decimal.Decimal     `json:"amount"`
	Date       time.Time           `json:"date"`
	Principal  decimal.Decimal     `json:"principal"`
	Interest   decimal.Decimal     `json:"interest"`
	Fees       decimal.Decimal     `json:"fees"`
	Deleted    bool                `json:"deleted"`
	Reconciled bool                `json:"reconciled"`
}

// Eligible reports whether the transaction may still be proposed for a match.
func (t *LoanTransaction) Eligible() bool {
	return !t.Deleted && !t.Reconciled
}

// Validate performs basic validation on the LoanTransaction.
func (t *LoanTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("loan transaction ID cannot be empty")
	}
	if strings.TrimSpace(t.LoanID) == "" {
		return fmt.Errorf("loan transaction must reference a loan")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid loan transaction type: %s", t.Type)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("loan transaction amount cannot be zero")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("loan transaction date cannot be zero")
	}
	return nil
}

// Loan ties transactions to a borrower. Only active loans participate in
// name-based fallback matching.
type Loan struct {
	ID         string `json:"id"`
	BorrowerID string `json:"borrower_id"`
	Reference  string `json:"reference"`
	Active     bool   `json:"active"`
}

// Borrower is a loan counterparty. Name and Email drive fuzzy matching and
// contact-based grouping.
type Borrower struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Investor is a capital counterparty.
type Investor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InvestorTransactionType marks the direction of an investor capital movement.
type InvestorTransactionType string

const (
	CapitalIn  InvestorTransactionType = "capital_in"
	CapitalOut InvestorTransactionType = "capital_out"
)

// IsValid checks if the investor transaction type is valid.
func (t InvestorTransactionType) IsValid() bool {
	return t == CapitalIn || t == CapitalOut
}

// InvestorTransaction is a capital movement on an investor account.
type InvestorTransaction struct {
	ID         string                  `json:"id"`
	InvestorID string                  `json:"investor_id"`
	Type       InvestorTransactionType `json:"type"`
	Amount     decimal.Decimal         `json:"amount"`
	Date       time.Time               `json:"date"`
}

// Validate performs basic validation on the InvestorTransaction.
func (t *InvestorTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("investor transaction ID cannot be empty")
	}
	if strings.TrimSpace(t.InvestorID) == "" {
		return fmt.Errorf("investor transaction must reference an investor")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid investor transaction type: %s", t.Type)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("investor transaction amount cannot be zero")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("investor transaction date cannot be zero")
	}
	return nil
}

// InterestEntryType marks interest accrued (credit) versus interest paid out
// (debit). Only debit entries are eligible for bank matching.
type InterestEntryType string

const (
	InterestCredit InterestEntryType = "credit"
	InterestDebit  InterestEntryType = "debit"
)

// IsValid checks if the interest entry type is valid.
func (t InterestEntryType) IsValid() bool {
	return t == InterestCredit || t == InterestDebit
}

// InvestorInterestEntry is an entry on an investor's interest account.
type InvestorInterestEntry struct {
	ID         string            `json:"id"`
	InvestorID string            `json:"investor_id"`
	Type       InterestEntryType `json:"type"`
	Amount     decimal.Decimal   `json:"amount"`
	Date       time.Time         `json:"date"`
}

// IsWithdrawal reports whether the entry represents interest leaving the book.
func (ie *InvestorInterestEntry) IsWithdrawal() bool {
	return ie.Type == InterestDebit
}

// Validate performs basic validation on the InvestorInterestEntry.
func (ie *InvestorInterestEntry) Validate() error {
	if strings.TrimSpace(ie.ID) == "" {
		return fmt.Errorf("interest entry ID cannot be empty")
	}
	if strings.TrimSpace(ie.InvestorID) == "" {
		return fmt.Errorf("interest entry must reference an investor")
	}
	if !ie.Type.IsValid() {
		return fmt.Errorf("invalid interest entry type: %s", ie.Type)
	}
	if ie.Amount.IsZero() {
		return fmt.Errorf("interest entry amount cannot be zero")
	}
	if ie.Date.IsZero() {
		return fmt.Errorf("interest entry date cannot be zero")
	}
	return nil
}

// Expense is a recorded business expense awaiting bank reconciliation.
type Expense struct {
	ID            string          `json:"id"`
	ExpenseTypeID string          `json:"expense_type_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Reconciled    bool            `json:"reconciled"`
}

// Validate performs basic validation on the Expense.
func (x *Expense) Validate() error {
	if strings.TrimSpace(x.ID) == "" {
		return fmt.Errorf("expense ID cannot be empty")
	}
	if x.Amount.IsZero() {
		return fmt.Errorf("expense amount cannot be zero")
	}
	if x.Date.IsZero() {
		return fmt.Errorf("expense date cannot be zero")
	}
	return nil
}

// ExpenseType labels an expense category.
type ExpenseType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchType classifies what kind of accounting event a suggestion proposes.
type MatchType string

const (
	MatchLoanRepayment      MatchType = "loan_repayment"
	MatchLoanDisbursement   MatchType = "loan_disbursement"
	MatchInvestorCredit     MatchType = "investor_credit"
	MatchInvestorWithdrawal MatchType = "investor_withdrawal"
	MatchExpense            MatchType = "expense"
)

// IsValid checks if the match type is valid.
func (t MatchType) IsValid() bool {
	switch t {
	case MatchLoanRepayment, MatchLoanDisbursement, MatchInvestorCredit,
		MatchInvestorWithdrawal, MatchExpense:
		return true
	}
	return false
}

// Pattern is a learned description-to-classification rule, recorded when a
// user accepts a suggestion. It acts as a low-confidence fallback.
type Pattern struct {
	ID          string         `json:"id"`
	Template    string         `json:"template"`
	EntryFilter EntryDirection `json:"entry_filter,omitempty"`

	// Optional amount range; nil means unbounded on that side.
	MinAmount *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`

	MatchType     MatchType `json:"match_type"`
	LoanID        string    `json:"loan_id,omitempty"`
	InvestorID    string    `json:"investor_id,omitempty"`
	ExpenseTypeID string    `json:"expense_type_id,omitempty"`

	UsageCount int     `json:"usage_count"`
	Confidence float64 `json:"confidence"`

	// AllocationRatios carries default principal/interest/fees splits for
	// loan classifications, applied by the accepting collaborator.
	AllocationRatios map[string]float64 `json:"allocation_ratios,omitempty"`
}

// AllowsDirection reports whether the pattern applies to entries of the given
// direction. An empty filter matches both.
func (p *Pattern) AllowsDirection(d EntryDirection) bool {
	return p.EntryFilter == "" || p.EntryFilter == d
}

// AllowsAmount reports whether the unsigned amount falls inside the pattern's
// optional range.
func (p *Pattern) AllowsAmount(amount decimal.Decimal) bool {
	if p.MinAmount != nil && amount.LessThan(*p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && amount.GreaterThan(*p.MaxAmount) {
		return false
	}
	return true
}

// Validate performs basic validation on the Pattern.
func (p *Pattern) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pattern ID cannot be empty")
	}
	if strings.TrimSpace(p.Template) == "" {
		return fmt.Errorf("pattern template cannot be empty")
	}
	if !p.MatchType.IsValid() {
		return fmt.Errorf("invalid pattern match type: %s", p.MatchType)
	}
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("pattern confidence must be between 0.0 and 1.0: %f", p.Confidence)
	}
	if p.UsageCount < 0 {
		return fmt.Errorf("pattern usage count cannot be negative: %d", p.UsageCount)
	}
	if p.EntryFilter != "" && p.EntryFilter != DirectionCredit && p.EntryFilter != DirectionDebit {
		return fmt.Errorf("invalid pattern entry filter: %s", p.EntryFilter)
	}
	if p.MinAmount != nil && p.MaxAmount != nil && p.MinAmount.GreaterThan(*p.MaxAmount) {
		return fmt.Errorf("pattern minimum amount exceeds maximum")
	}
	return nil
}

// ParseAmount parses a decimal amount from a string, tolerating currency
// symbols and thousand separators commonly found in bank exports.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// ParseDate attempts to parse a date from a string using the formats commonly
// seen in statement exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseBool parses the truthy spellings found in exported reconciled columns.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean value '%s'", s)
	}
}

// Package matchers implements the suggestion strategies that propose
// accounting events for unreconciled bank entries.
//
// Each strategy is scoped to one accounting-event family (loan repayment,
// loan disbursement, investor credit, investor withdrawal, expense, learned
// pattern) and implements the Strategy contract: an applicability gate, a
// candidate generator, and a pure confidence function over its own
// candidates. Strategies never mutate the context they are handed; claim
// state advances only in the engine's batch runner.
package matchers

import (
	"sort"
	"strings"

	"lending-reconciliation-service/internal/models"
)

// MatchMode describes the shape of a proposed match.
type MatchMode string

const (
	// ModeMatch links one bank entry to one ledger record.
	ModeMatch MatchMode = "match"
	// ModeMatchGroup links one bank entry to several ledger records that
	// together sum to its amount.
	ModeMatchGroup MatchMode = "match_group"
	// ModeGroupedRepayment links several bank entries to one repayment.
	ModeGroupedRepayment MatchMode = "grouped_repayment"
	// ModeGroupedDisbursement links several bank entries to one disbursement.
	ModeGroupedDisbursement MatchMode = "grouped_disbursement"
	// ModeGroupedInvestor links several bank entries to one investor
	// transaction.
	ModeGroupedInvestor MatchMode = "grouped_investor"
	// ModeCreate proposes classifying the entry as a brand-new transaction
	// with no existing ledger record.
	ModeCreate MatchMode = "create"
)

// IsGrouped reports whether the mode consumes several bank entries.
func (m MatchMode) IsGrouped() bool {
	return m == ModeGroupedRepayment || m == ModeGroupedDisbursement || m == ModeGroupedInvestor
}

// RecordFamily identifies which ledger table a referenced record lives in.
type RecordFamily string

const (
	FamilyLoanTransaction     RecordFamily = "loan_transaction"
	FamilyInvestorTransaction RecordFamily = "investor_transaction"
	FamilyInterestEntry       RecordFamily = "interest_entry"
	FamilyExpense             RecordFamily = "expense"
)

// RecordRef points at one ledger record.
type RecordRef struct {
	Family RecordFamily `json:"family"`
	ID     string       `json:"id"`
}

// GroupBasis records why a match_group's members were grouped together; the
// basis carries a confidence penalty when it is weaker than a shared party.
type GroupBasis string

const (
	// BasisBorrower groups records belonging to a single borrower.
	BasisBorrower GroupBasis = "borrower"
	// BasisContact groups records of borrowers sharing a contact email.
	BasisContact GroupBasis = "contact"
	// BasisDateWindow groups records purely by date window.
	BasisDateWindow GroupBasis = "date_window"
	// BasisInvestor groups records belonging to a single investor.
	BasisInvestor GroupBasis = "investor"
)

// Candidate is one proposed match, produced by a strategy during a run and
// scored by the same strategy. It is ephemeral: nothing in it survives the
// batch except through the suggestion the engine builds from it.
type Candidate struct {
	Type models.MatchType
	Mode MatchMode

	LoanTransactions     []*models.LoanTransaction
	InvestorTransactions []*models.InvestorTransaction
	InterestEntries      []*models.InvestorInterestEntry
	Expenses             []*models.Expense

	// GroupedEntries holds the other bank entries consumed alongside the
	// anchor entry in grouped_* modes.
	GroupedEntries []*models.BankEntry

	Reason string

	// Targets for create-mode candidates.
	TargetLoanID        string
	TargetInvestorID    string
	TargetExpenseTypeID string

	// Scoring metadata, written at generation time and read by Confidence.
	BaseScore       float64
	NameScore       float64
	Basis           GroupBasis
	MaxPairwiseDays int
	AnchorDays      int
	SameDay         bool
	Pattern         *models.Pattern
	KeywordScore    float64
	FixedConfidence float64
}

// RecordRefs lists every ledger record the candidate references, in a stable
// order.
func (c *Candidate) RecordRefs() []RecordRef {
	refs := make([]RecordRef, 0,
		len(c.LoanTransactions)+len(c.InvestorTransactions)+len(c.InterestEntries)+len(c.Expenses))
	for _, t := range c.LoanTransactions {
		refs = append(refs, RecordRef{Family: FamilyLoanTransaction, ID: t.ID})
	}
	for _, t := range c.InvestorTransactions {
		refs = append(refs, RecordRef{Family: FamilyInvestorTransaction, ID: t.ID})
	}
	for _, ie := range c.InterestEntries {
		refs = append(refs, RecordRef{Family: FamilyInterestEntry, ID: ie.ID})
	}
	for _, x := range c.Expenses {
		refs = append(refs, RecordRef{Family: FamilyExpense, ID: x.ID})
	}
	return refs
}

// refKey returns a canonical identity for deduplicating candidates that
// reference the same record set.
func (c *Candidate) refKey() string {
	refs := c.RecordRefs()
	keys := make([]string, 0, len(refs)+len(c.GroupedEntries))
	for _, r := range refs {
		keys = append(keys, string(r.Family)+":"+r.ID)
	}
	for _, e := range c.GroupedEntries {
		keys = append(keys, "entry:"+e.ID)
	}
	sort.Strings(keys)
	return string(c.Mode) + "|" + strings.Join(keys, ",")
}

// Strategy is the contract every matcher implements. Candidates must never
// mutate the context; Confidence must be a pure function of the candidate and
// the entry.
type Strategy interface {
	// Name identifies the strategy in suggestions and logs.
	Name() string
	// Priority orders strategies; higher runs first.
	Priority() int
	// Enabled reports whether the strategy participates in runs.
	Enabled() bool
	// CanMatch is the applicability gate, typically the entry's sign.
	CanMatch(entry *models.BankEntry, ctx *Context) bool
	// Candidates proposes zero or more matches for the entry.
	Candidates(entry *models.BankEntry, ctx *Context) []Candidate
	// Confidence scores one of this strategy's own candidates in [0,1].
	Confidence(c *Candidate, entry *models.BankEntry) float64
}

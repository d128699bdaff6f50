package matchers

import (
	"fmt"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// ExpenseMatcher proposes recorded expenses for outgoing bank entries.
// Expenses are matched one-to-one only; grouped expense payments are rare
// enough that proposing them produced more noise than value.
type ExpenseMatcher struct {
	enabled bool
}

// NewExpenseMatcher returns the strategy, enabled.
func NewExpenseMatcher() *ExpenseMatcher {
	return &ExpenseMatcher{enabled: true}
}

func (m *ExpenseMatcher) Name() string       { return "expense" }
func (m *ExpenseMatcher) Priority() int      { return 50 }
func (m *ExpenseMatcher) Enabled() bool      { return m.enabled }
func (m *ExpenseMatcher) SetEnabled(on bool) { m.enabled = on }

// CanMatch admits unreconciled debits only.
func (m *ExpenseMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled && entry.IsDebit()
}

// Confidence scores one of this strategy's candidates.
func (m *ExpenseMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	return scoreCandidate(c)
}

// Candidates proposes unreconciled expenses matching the entry's amount
// within the one-to-one window.
func (m *ExpenseMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	var out []Candidate
	for _, x := range ctx.OpenExpenses() {
		if !scoring.DatesWithinDays(entry.Date, x.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, x.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		typeName := ctx.ExpenseTypeName(x.ExpenseTypeID)
		out = append(out, Candidate{
			Type:      models.MatchExpense,
			Mode:      ModeMatch,
			Expenses:  []*models.Expense{x},
			BaseScore: scoring.MatchScore(entry.Date, x.Date, amount, x.Amount, cfg.AmountTolerance),
			NameScore: scoring.NameInText(entry.Description, typeName, ""),
			Reason: fmt.Sprintf("expense %s (%s) of %s on %s",
				x.ID, typeName, x.Amount.Abs().StringFixed(2), x.Date.Format("2006-01-02")),
		})
	}
	return out
}

package matchers

import (
	"fmt"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// LoanDisbursementMatcher proposes loan disbursements for outgoing bank
// entries: a single disbursement one-to-one, or several bank debits that
// together cover one large disbursement.
type LoanDisbursementMatcher struct {
	enabled bool
}

// NewLoanDisbursementMatcher returns the strategy, enabled.
func NewLoanDisbursementMatcher() *LoanDisbursementMatcher {
	return &LoanDisbursementMatcher{enabled: true}
}

func (m *LoanDisbursementMatcher) Name() string       { return "loan_disbursement" }
func (m *LoanDisbursementMatcher) Priority() int      { return 85 }
func (m *LoanDisbursementMatcher) Enabled() bool      { return m.enabled }
func (m *LoanDisbursementMatcher) SetEnabled(on bool) { m.enabled = on }

// CanMatch admits unreconciled debits only; disbursements are outgoing money.
func (m *LoanDisbursementMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled && entry.IsDebit()
}

// Confidence scores one of this strategy's candidates.
func (m *LoanDisbursementMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	return scoreCandidate(c)
}

// Candidates generates disbursement proposals for the entry.
func (m *LoanDisbursementMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	disbursements := ctx.LoanTransactions(models.LoanDisbursement)
	if len(disbursements) == 0 {
		return nil
	}

	var out []Candidate
	seen := make(map[string]struct{})
	add := func(c Candidate) {
		key := c.refKey()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	for _, dis := range disbursements {
		if !scoring.DatesWithinDays(entry.Date, dis.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, dis.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		name := ctx.BorrowerName(dis.LoanID)
		add(Candidate{
			Type:             models.MatchLoanDisbursement,
			Mode:             ModeMatch,
			LoanTransactions: []*models.LoanTransaction{dis},
			BaseScore:        scoring.MatchScore(entry.Date, dis.Date, amount, dis.Amount, cfg.AmountTolerance),
			NameScore:        scoring.NameInText(entry.Description, name, ctx.LoanReference(dis.LoanID)),
			Reason: fmt.Sprintf("disbursement %s of %s on %s to %s",
				dis.ID, dis.Amount.Abs().StringFixed(2), dis.Date.Format("2006-01-02"), name),
		})
	}

	m.groupedEntries(entry, ctx, disbursements, add)

	return out
}

// groupedEntries proposes several bank debits covering one disbursement. The
// group must sit within the disbursement window of the transaction date and
// read as one payee, or every entry must name the borrower.
func (m *LoanDisbursementMatcher) groupedEntries(entry *models.BankEntry, ctx *Context, disbursements []*models.LoanTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	companions := entriesWithinDays(ctx.CompanionEntries(entry.ID, models.DirectionDebit), entry.Date, cfg.GroupWindowDays)
	if len(companions) == 0 {
		return
	}

	for _, dis := range disbursements {
		if dis.Amount.Abs().LessThanOrEqual(amount.Add(cfg.AmountTolerance)) {
			continue
		}
		// Keep only entries close enough to the disbursement itself.
		pool := entriesWithinDays(append([]*models.BankEntry{entry}, companions...), dis.Date, cfg.DisbursementWindowDays)
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindSubsetSum(entryItems(pool), dis.Amount, entry.ID, cfg.AmountTolerance,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if len(subset) < 2 {
			continue
		}

		poolCompanions := make([]*models.BankEntry, 0, len(pool))
		for _, e := range pool {
			if e.ID != entry.ID {
				poolCompanions = append(poolCompanions, e)
			}
		}
		group, others := pickEntries(entry, poolCompanions, subset)
		name := ctx.BorrowerName(dis.LoanID)
		if !subsetEvidence(group, name, cfg.NameThreshold) {
			continue
		}

		sameDay, anchorDays := anchorStats(group, dis.Date)
		add(Candidate{
			Type:             models.MatchLoanDisbursement,
			Mode:             ModeGroupedDisbursement,
			LoanTransactions: []*models.LoanTransaction{dis},
			GroupedEntries:   others,
			SameDay:          sameDay,
			AnchorDays:       anchorDays,
			NameScore:        scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d bank debits summing to disbursement %s of %s to %s",
				len(group), dis.ID, dis.Amount.Abs().StringFixed(2), name),
		})
	}
}

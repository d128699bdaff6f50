package matchers

import (
	"fmt"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// InvestorCreditMatcher proposes investor capital deposits for incoming bank
// entries: one capital_in transaction, several capital_in from the same
// investor summing to the entry, or several bank credits covering one large
// capital_in.
type InvestorCreditMatcher struct {
	enabled bool
}

// NewInvestorCreditMatcher returns the strategy, enabled.
func NewInvestorCreditMatcher() *InvestorCreditMatcher {
	return &InvestorCreditMatcher{enabled: true}
}

func (m *InvestorCreditMatcher) Name() string       { return "investor_credit" }
func (m *InvestorCreditMatcher) Priority() int      { return 80 }
func (m *InvestorCreditMatcher) Enabled() bool      { return m.enabled }
func (m *InvestorCreditMatcher) SetEnabled(on bool) { m.enabled = on }

// CanMatch admits unreconciled credits only.
func (m *InvestorCreditMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled && entry.IsCredit()
}

// Confidence scores one of this strategy's candidates.
func (m *InvestorCreditMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	return scoreCandidate(c)
}

// Candidates generates investor-deposit proposals for the entry.
func (m *InvestorCreditMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	deposits := ctx.InvestorTransactions(models.CapitalIn)
	if len(deposits) == 0 {
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

	// Single deposit.
	for _, dep := range deposits {
		if !scoring.DatesWithinDays(entry.Date, dep.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, dep.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		name := ctx.InvestorName(dep.InvestorID)
		add(Candidate{
			Type:                 models.MatchInvestorCredit,
			Mode:                 ModeMatch,
			InvestorTransactions: []*models.InvestorTransaction{dep},
			BaseScore:            scoring.MatchScore(entry.Date, dep.Date, amount, dep.Amount, cfg.AmountTolerance),
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("capital deposit %s of %s on %s from %s",
				dep.ID, dep.Amount.Abs().StringFixed(2), dep.Date.Format("2006-01-02"), name),
		})
	}

	// Several deposits from one investor, all near the entry date.
	byInvestor := make(map[string][]*models.InvestorTransaction)
	for _, dep := range deposits {
		if scoring.DateProximityScore(dep.Date, entry.Date) >= cfg.ProximityGate {
			byInvestor[dep.InvestorID] = append(byInvestor[dep.InvestorID], dep)
		}
	}
	for _, investorID := range sortedKeys(byInvestor) {
		pool := byInvestor[investorID]
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindMemberSubsetSum(investorTxnItems(pool), amount, cfg.AmountTolerance, 2,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if subset == nil {
			continue
		}

		txns := pickInvestorTxns(pool, subset)
		name := ctx.InvestorName(investorID)
		add(Candidate{
			Type:                 models.MatchInvestorCredit,
			Mode:                 ModeMatchGroup,
			InvestorTransactions: txns,
			Basis:                BasisInvestor,
			MaxPairwiseDays:      maxPairwiseDaysInvestor(txns),
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d capital deposits from %s summing to %s",
				len(txns), name, amount.StringFixed(2)),
		})
	}

	m.groupedEntries(entry, ctx, deposits, add)

	return out
}

// groupedEntries proposes several bank credits covering one capital_in.
func (m *InvestorCreditMatcher) groupedEntries(entry *models.BankEntry, ctx *Context, deposits []*models.InvestorTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	companions := entriesWithinDays(ctx.CompanionEntries(entry.ID, models.DirectionCredit), entry.Date, cfg.GroupWindowDays)
	if len(companions) == 0 {
		return
	}
	items := entryItems(append([]*models.BankEntry{entry}, companions...))

	for _, dep := range deposits {
		if dep.Amount.Abs().LessThanOrEqual(amount.Add(cfg.AmountTolerance)) {
			continue
		}
		subset := scoring.FindSubsetSum(items, dep.Amount, entry.ID, cfg.AmountTolerance,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if len(subset) < 2 {
			continue
		}

		group, others := pickEntries(entry, companions, subset)
		name := ctx.InvestorName(dep.InvestorID)
		if !subsetEvidence(group, name, cfg.NameThreshold) {
			continue
		}

		sameDay, anchorDays := anchorStats(group, dep.Date)
		add(Candidate{
			Type:                 models.MatchInvestorCredit,
			Mode:                 ModeGroupedInvestor,
			InvestorTransactions: []*models.InvestorTransaction{dep},
			GroupedEntries:       others,
			SameDay:              sameDay,
			AnchorDays:           anchorDays,
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d bank credits summing to capital deposit %s of %s from %s",
				len(group), dep.ID, dep.Amount.Abs().StringFixed(2), name),
		})
	}
}

// maxPairwiseDaysInvestor computes the date spread of an investor transaction
// group.
func maxPairwiseDaysInvestor(txns []*models.InvestorTransaction) int {
	max := 0
	for i := 0; i < len(txns); i++ {
		for j := i + 1; j < len(txns); j++ {
			if d := scoring.DaysBetween(txns[i].Date, txns[j].Date); d > max {
				max = d
			}
		}
	}
	return max
}

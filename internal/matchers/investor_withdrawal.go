package matchers

import (
	"fmt"
	"time"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// InvestorWithdrawalMatcher proposes investor withdrawals for outgoing bank
// entries. It covers single capital_out transactions, single interest
// withdrawals, same-investor groups of either, the cross-table case where one
// bank debit settles capital and interest together, and several bank debits
// covering one large capital_out.
type InvestorWithdrawalMatcher struct {
	enabled bool
}

// NewInvestorWithdrawalMatcher returns the strategy, enabled.
func NewInvestorWithdrawalMatcher() *InvestorWithdrawalMatcher {
	return &InvestorWithdrawalMatcher{enabled: true}
}

func (m *InvestorWithdrawalMatcher) Name() string       { return "investor_withdrawal" }
func (m *InvestorWithdrawalMatcher) Priority() int      { return 75 }
func (m *InvestorWithdrawalMatcher) Enabled() bool      { return m.enabled }
func (m *InvestorWithdrawalMatcher) SetEnabled(on bool) { m.enabled = on }

// CanMatch admits unreconciled debits only.
func (m *InvestorWithdrawalMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled && entry.IsDebit()
}

// Confidence scores one of this strategy's candidates.
func (m *InvestorWithdrawalMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	return scoreCandidate(c)
}

// Candidates generates withdrawal proposals for the entry.
func (m *InvestorWithdrawalMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	withdrawals := ctx.InvestorTransactions(models.CapitalOut)
	interest := ctx.InterestWithdrawals()
	if len(withdrawals) == 0 && len(interest) == 0 {
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

	// Single capital withdrawal.
	for _, w := range withdrawals {
		if !scoring.DatesWithinDays(entry.Date, w.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, w.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		name := ctx.InvestorName(w.InvestorID)
		add(Candidate{
			Type:                 models.MatchInvestorWithdrawal,
			Mode:                 ModeMatch,
			InvestorTransactions: []*models.InvestorTransaction{w},
			BaseScore:            scoring.MatchScore(entry.Date, w.Date, amount, w.Amount, cfg.AmountTolerance),
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("capital withdrawal %s of %s on %s by %s",
				w.ID, w.Amount.Abs().StringFixed(2), w.Date.Format("2006-01-02"), name),
		})
	}

	// Single interest withdrawal.
	for _, ie := range interest {
		if !scoring.DatesWithinDays(entry.Date, ie.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, ie.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		name := ctx.InvestorName(ie.InvestorID)
		add(Candidate{
			Type:            models.MatchInvestorWithdrawal,
			Mode:            ModeMatch,
			InterestEntries: []*models.InvestorInterestEntry{ie},
			BaseScore:       scoring.MatchScore(entry.Date, ie.Date, amount, ie.Amount, cfg.AmountTolerance),
			NameScore:       scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("interest withdrawal %s of %s on %s by %s",
				ie.ID, ie.Amount.Abs().StringFixed(2), ie.Date.Format("2006-01-02"), name),
		})
	}

	m.sameInvestorGroups(entry, ctx, withdrawals, interest, add)
	m.crossTableGroups(entry, ctx, withdrawals, interest, add)
	m.groupedEntries(entry, ctx, withdrawals, add)

	return out
}

// sameInvestorGroups proposes several capital withdrawals, or several
// interest withdrawals, from one investor that together sum to the entry.
func (m *InvestorWithdrawalMatcher) sameInvestorGroups(entry *models.BankEntry, ctx *Context, withdrawals []*models.InvestorTransaction, interest []*models.InvestorInterestEntry, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	limits := scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize}

	byInvestor := make(map[string][]*models.InvestorTransaction)
	for _, w := range withdrawals {
		if scoring.DateProximityScore(w.Date, entry.Date) >= cfg.ProximityGate {
			byInvestor[w.InvestorID] = append(byInvestor[w.InvestorID], w)
		}
	}
	for _, investorID := range sortedKeys(byInvestor) {
		pool := byInvestor[investorID]
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindMemberSubsetSum(investorTxnItems(pool), amount, cfg.AmountTolerance, 2, limits)
		if subset == nil {
			continue
		}
		txns := pickInvestorTxns(pool, subset)
		name := ctx.InvestorName(investorID)
		add(Candidate{
			Type:                 models.MatchInvestorWithdrawal,
			Mode:                 ModeMatchGroup,
			InvestorTransactions: txns,
			Basis:                BasisInvestor,
			MaxPairwiseDays:      maxPairwiseDaysInvestor(txns),
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d capital withdrawals by %s summing to %s",
				len(txns), name, amount.StringFixed(2)),
		})
	}

	interestByInvestor := make(map[string][]*models.InvestorInterestEntry)
	for _, ie := range interest {
		if scoring.DateProximityScore(ie.Date, entry.Date) >= cfg.ProximityGate {
			interestByInvestor[ie.InvestorID] = append(interestByInvestor[ie.InvestorID], ie)
		}
	}
	for _, investorID := range sortedKeys(interestByInvestor) {
		pool := interestByInvestor[investorID]
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindMemberSubsetSum(interestItems(pool), amount, cfg.AmountTolerance, 2, limits)
		if subset == nil {
			continue
		}
		entries := pickInterestEntries(pool, subset)
		name := ctx.InvestorName(investorID)
		add(Candidate{
			Type:            models.MatchInvestorWithdrawal,
			Mode:            ModeMatchGroup,
			InterestEntries: entries,
			Basis:           BasisInvestor,
			MaxPairwiseDays: maxPairwiseDaysInterest(entries),
			NameScore:       scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d interest withdrawals by %s summing to %s",
				len(entries), name, amount.StringFixed(2)),
		})
	}
}

// crossTableGroups proposes combinations of at least one capital withdrawal
// and at least one interest withdrawal from the same investor whose combined
// total matches the entry.
func (m *InvestorWithdrawalMatcher) crossTableGroups(entry *models.BankEntry, ctx *Context, withdrawals []*models.InvestorTransaction, interest []*models.InvestorInterestEntry, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	limits := scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize}

	capitalByInvestor := make(map[string][]*models.InvestorTransaction)
	for _, w := range withdrawals {
		if scoring.DateProximityScore(w.Date, entry.Date) >= cfg.ProximityGate {
			capitalByInvestor[w.InvestorID] = append(capitalByInvestor[w.InvestorID], w)
		}
	}
	interestByInvestor := make(map[string][]*models.InvestorInterestEntry)
	for _, ie := range interest {
		if scoring.DateProximityScore(ie.Date, entry.Date) >= cfg.ProximityGate {
			interestByInvestor[ie.InvestorID] = append(interestByInvestor[ie.InvestorID], ie)
		}
	}

	for _, investorID := range sortedKeys(capitalByInvestor) {
		capPool := capitalByInvestor[investorID]
		intPool := interestByInvestor[investorID]
		if len(capPool) == 0 || len(intPool) == 0 {
			continue
		}

		fromCap, fromInt := scoring.FindMixedSubsetSum(
			investorTxnItems(capPool), interestItems(intPool), amount, cfg.AmountTolerance, limits)
		if fromCap == nil || fromInt == nil {
			continue
		}

		capTxns := pickInvestorTxns(capPool, fromCap)
		intEntries := pickInterestEntries(intPool, fromInt)
		name := ctx.InvestorName(investorID)

		dates := make([]time.Time, 0, len(capTxns)+len(intEntries))
		for _, t := range capTxns {
			dates = append(dates, t.Date)
		}
		for _, ie := range intEntries {
			dates = append(dates, ie.Date)
		}

		c := Candidate{
			Type:                 models.MatchInvestorWithdrawal,
			Mode:                 ModeMatchGroup,
			InvestorTransactions: capTxns,
			InterestEntries:      intEntries,
			Basis:                BasisInvestor,
			MaxPairwiseDays:      maxPairwiseDays(dates),
			NameScore:            scoring.NameInText(entry.Description, name, ""),
		}
		c.Reason = fmt.Sprintf("capital and interest withdrawals (%s) by %s summing to %s",
			joinIDs(c.RecordRefs()), name, amount.StringFixed(2))
		add(c)
	}
}

// groupedEntries proposes several bank debits covering one capital_out.
func (m *InvestorWithdrawalMatcher) groupedEntries(entry *models.BankEntry, ctx *Context, withdrawals []*models.InvestorTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	companions := entriesWithinDays(ctx.CompanionEntries(entry.ID, models.DirectionDebit), entry.Date, cfg.GroupWindowDays)
	if len(companions) == 0 {
		return
	}
	items := entryItems(append([]*models.BankEntry{entry}, companions...))

	for _, w := range withdrawals {
		if w.Amount.Abs().LessThanOrEqual(amount.Add(cfg.AmountTolerance)) {
			continue
		}
		subset := scoring.FindSubsetSum(items, w.Amount, entry.ID, cfg.AmountTolerance,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if len(subset) < 2 {
			continue
		}

		group, others := pickEntries(entry, companions, subset)
		name := ctx.InvestorName(w.InvestorID)
		if !subsetEvidence(group, name, cfg.NameThreshold) {
			continue
		}

		sameDay, anchorDays := anchorStats(group, w.Date)
		add(Candidate{
			Type:                 models.MatchInvestorWithdrawal,
			Mode:                 ModeGroupedInvestor,
			InvestorTransactions: []*models.InvestorTransaction{w},
			GroupedEntries:       others,
			SameDay:              sameDay,
			AnchorDays:           anchorDays,
			NameScore:            scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d bank debits summing to capital withdrawal %s of %s by %s",
				len(group), w.ID, w.Amount.Abs().StringFixed(2), name),
		})
	}
}

// interestItems converts interest entries into subset-sum material.
func interestItems(entries []*models.InvestorInterestEntry) []scoring.SumItem {
	items := make([]scoring.SumItem, 0, len(entries))
	for _, ie := range entries {
		items = append(items, scoring.SumItem{ID: ie.ID, Amount: ie.Amount, Date: ie.Date})
	}
	return items
}

// pickInterestEntries resolves subset-sum results back to interest entries.
func pickInterestEntries(entries []*models.InvestorInterestEntry, items []scoring.SumItem) []*models.InvestorInterestEntry {
	byID := make(map[string]*models.InvestorInterestEntry, len(entries))
	for _, ie := range entries {
		byID[ie.ID] = ie
	}
	out := make([]*models.InvestorInterestEntry, 0, len(items))
	for _, it := range items {
		if ie := byID[it.ID]; ie != nil {
			out = append(out, ie)
		}
	}
	return out
}

// maxPairwiseDaysInterest computes the date spread of an interest entry group.
func maxPairwiseDaysInterest(entries []*models.InvestorInterestEntry) int {
	max := 0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if d := scoring.DaysBetween(entries[i].Date, entries[j].Date); d > max {
				max = d
			}
		}
	}
	return max
}

package matchers

import (
	"fmt"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// LoanRepaymentMatcher proposes loan repayments for incoming bank entries.
// It covers five shapes, strongest evidence first: a single repayment, a
// group of repayments from one borrower, a group from borrowers sharing a
// contact email, a pure date-window group, and the inverse case of several
// bank credits covering one large repayment.
type LoanRepaymentMatcher struct {
	enabled bool
}

// NewLoanRepaymentMatcher returns the strategy, enabled.
func NewLoanRepaymentMatcher() *LoanRepaymentMatcher {
	return &LoanRepaymentMatcher{enabled: true}
}

func (m *LoanRepaymentMatcher) Name() string        { return "loan_repayment" }
func (m *LoanRepaymentMatcher) Priority() int       { return 90 }
func (m *LoanRepaymentMatcher) Enabled() bool       { return m.enabled }
func (m *LoanRepaymentMatcher) SetEnabled(on bool)  { m.enabled = on }

// CanMatch admits unreconciled credits only; repayments are incoming money.
func (m *LoanRepaymentMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled && entry.IsCredit()
}

// Confidence scores one of this strategy's candidates.
func (m *LoanRepaymentMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	return scoreCandidate(c)
}

// Candidates generates every repayment-shaped proposal for the entry.
func (m *LoanRepaymentMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	amount := entry.AbsAmount()
	repayments := ctx.LoanTransactions(models.LoanRepayment)
	if len(repayments) == 0 {
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

	// Single repayment within the one-to-one window.
	for _, rep := range repayments {
		if !scoring.DatesWithinDays(entry.Date, rep.Date, cfg.SingleWindowDays) {
			continue
		}
		if !scoring.AmountsMatch(amount, rep.Amount.Abs(), cfg.AmountTolerance) {
			continue
		}
		name := ctx.BorrowerName(rep.LoanID)
		add(Candidate{
			Type:             models.MatchLoanRepayment,
			Mode:             ModeMatch,
			LoanTransactions: []*models.LoanTransaction{rep},
			BaseScore:        scoring.MatchScore(entry.Date, rep.Date, amount, rep.Amount, cfg.AmountTolerance),
			NameScore:        scoring.NameInText(entry.Description, name, ctx.LoanReference(rep.LoanID)),
			Reason: fmt.Sprintf("repayment %s of %s on %s from %s",
				rep.ID, rep.Amount.Abs().StringFixed(2), rep.Date.Format("2006-01-02"), name),
		})
	}

	m.sameBorrowerGroups(entry, ctx, repayments, add)
	m.sharedContactGroups(entry, ctx, repayments, add)
	m.dateWindowGroup(entry, ctx, repayments, add)
	m.groupedEntries(entry, ctx, repayments, add)

	return out
}

// sameBorrowerGroups proposes several repayments from one borrower that
// together sum to the entry.
func (m *LoanRepaymentMatcher) sameBorrowerGroups(entry *models.BankEntry, ctx *Context, repayments []*models.LoanTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	byBorrower := make(map[string][]*models.LoanTransaction)
	for _, rep := range repayments {
		b := ctx.BorrowerForLoan(rep.LoanID)
		if b == nil {
			continue
		}
		byBorrower[b.ID] = append(byBorrower[b.ID], rep)
	}

	for _, borrowerID := range sortedKeys(byBorrower) {
		pool := withinDaysOf(byBorrower[borrowerID], entry.Date, cfg.GroupWindowDays)
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindMemberSubsetSum(loanTxnItems(pool), amount, cfg.AmountTolerance, 2,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if subset == nil {
			continue
		}

		txns := pickLoanTxns(pool, subset)
		name := ctx.BorrowerName(txns[0].LoanID)
		add(Candidate{
			Type:             models.MatchLoanRepayment,
			Mode:             ModeMatchGroup,
			LoanTransactions: txns,
			Basis:            BasisBorrower,
			MaxPairwiseDays:  maxPairwiseDays(txnDates(txns)),
			NameScore:        scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d repayments from %s summing to %s",
				len(txns), name, amount.StringFixed(2)),
		})
	}
}

// sharedContactGroups proposes repayment groups spanning borrowers that share
// a contact email, for payers who remit for several loans at once.
func (m *LoanRepaymentMatcher) sharedContactGroups(entry *models.BankEntry, ctx *Context, repayments []*models.LoanTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	byEmail := make(map[string][]*models.LoanTransaction)
	borrowersByEmail := make(map[string]map[string]struct{})
	for _, rep := range repayments {
		email := ctx.BorrowerEmail(rep.LoanID)
		if email == "" {
			continue
		}
		byEmail[email] = append(byEmail[email], rep)
		if borrowersByEmail[email] == nil {
			borrowersByEmail[email] = make(map[string]struct{})
		}
		borrowersByEmail[email][ctx.BorrowerForLoan(rep.LoanID).ID] = struct{}{}
	}

	for _, email := range sortedKeys(byEmail) {
		// A single borrower behind the email is already covered by the
		// same-borrower grouping.
		if len(borrowersByEmail[email]) < 2 {
			continue
		}
		pool := withinDaysOf(byEmail[email], entry.Date, cfg.GroupWindowDays)
		if len(pool) < 2 {
			continue
		}
		subset := scoring.FindMemberSubsetSum(loanTxnItems(pool), amount, cfg.AmountTolerance, 2,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if subset == nil {
			continue
		}

		txns := pickLoanTxns(pool, subset)
		add(Candidate{
			Type:             models.MatchLoanRepayment,
			Mode:             ModeMatchGroup,
			LoanTransactions: txns,
			Basis:            BasisContact,
			MaxPairwiseDays:  maxPairwiseDays(txnDates(txns)),
			NameScore:        scoring.NameInText(entry.Description, ctx.BorrowerName(txns[0].LoanID), email),
			Reason: fmt.Sprintf("%d repayments sharing contact %s summing to %s",
				len(txns), email, amount.StringFixed(2)),
		})
	}
}

// dateWindowGroup runs the widening-window search over all repayments,
// trying the whole window, then pairs, then triplets, and keeps the first
// (tightest-window) success.
func (m *LoanRepaymentMatcher) dateWindowGroup(entry *models.BankEntry, ctx *Context, repayments []*models.LoanTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	for _, window := range cfg.DateSearchWindows {
		pool := withinDaysOf(repayments, entry.Date, window)
		if len(pool) < 2 {
			continue
		}
		group := scoring.FindWindowGroupSum(loanTxnItems(pool), amount, cfg.AmountTolerance)
		if group == nil {
			continue
		}

		txns := pickLoanTxns(pool, group)
		add(Candidate{
			Type:             models.MatchLoanRepayment,
			Mode:             ModeMatchGroup,
			LoanTransactions: txns,
			Basis:            BasisDateWindow,
			MaxPairwiseDays:  maxPairwiseDays(txnDates(txns)),
			Reason: fmt.Sprintf("%d repayments within %d days summing to %s",
				len(txns), window, amount.StringFixed(2)),
		})
		return
	}
}

// groupedEntries proposes the inverse shape: several bank credits that
// together cover one repayment larger than the anchor entry.
func (m *LoanRepaymentMatcher) groupedEntries(entry *models.BankEntry, ctx *Context, repayments []*models.LoanTransaction, add func(Candidate)) {
	cfg := ctx.Config
	amount := entry.AbsAmount()

	companions := entriesWithinDays(ctx.CompanionEntries(entry.ID, models.DirectionCredit), entry.Date, cfg.GroupWindowDays)
	if len(companions) == 0 {
		return
	}
	items := entryItems(append([]*models.BankEntry{entry}, companions...))

	for _, rep := range repayments {
		// A repayment the entry covers alone is the single-match case.
		if rep.Amount.Abs().LessThanOrEqual(amount.Add(cfg.AmountTolerance)) {
			continue
		}
		subset := scoring.FindSubsetSum(items, rep.Amount, entry.ID, cfg.AmountTolerance,
			scoring.SubsetLimits{MaxPool: cfg.MaxSubsetPool, MaxSize: cfg.MaxSubsetSize})
		if len(subset) < 2 {
			continue
		}

		group, others := pickEntries(entry, companions, subset)
		name := ctx.BorrowerName(rep.LoanID)
		if !subsetEvidence(group, name, cfg.NameThreshold) {
			continue
		}

		sameDay, anchorDays := anchorStats(group, rep.Date)
		add(Candidate{
			Type:             models.MatchLoanRepayment,
			Mode:             ModeGroupedRepayment,
			LoanTransactions: []*models.LoanTransaction{rep},
			GroupedEntries:   others,
			SameDay:          sameDay,
			AnchorDays:       anchorDays,
			NameScore:        scoring.NameInText(entry.Description, name, ""),
			Reason: fmt.Sprintf("%d bank credits summing to repayment %s of %s from %s",
				len(group), rep.ID, rep.Amount.Abs().StringFixed(2), name),
		})
	}
}

package matchers

import (
	"fmt"
	"math"
	"strings"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// Confidence constants for the fallback strategy.
const (
	keywordExpenseConfidence = 0.65
	patternStoredWeight      = 0.55
	patternKeywordWeight     = 0.45
	patternUsageStep         = 0.01
	patternUsageBonusCap     = 0.15
)

// PatternMatcher is the low-priority fallback that classifies entries with no
// ledger candidate. It proposes create-mode suggestions from learned
// patterns, an expense keyword dictionary, and fuzzy borrower or investor
// name hits.
type PatternMatcher struct {
	enabled bool
}

// NewPatternMatcher returns the strategy, enabled.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{enabled: true}
}

func (m *PatternMatcher) Name() string       { return "pattern" }
func (m *PatternMatcher) Priority() int      { return 30 }
func (m *PatternMatcher) Enabled() bool      { return m.enabled }
func (m *PatternMatcher) SetEnabled(on bool) { m.enabled = on }

// CanMatch admits any unreconciled entry; the fallback applies to both signs.
func (m *PatternMatcher) CanMatch(entry *models.BankEntry, _ *Context) bool {
	return !entry.Reconciled
}

// Confidence blends stored pattern confidence, keyword score and a capped
// usage bonus for pattern hits; keyword and name hits carry their fixed or
// raw similarity score.
func (m *PatternMatcher) Confidence(c *Candidate, _ *models.BankEntry) float64 {
	if c.Pattern != nil {
		usageBonus := math.Min(patternUsageBonusCap, patternUsageStep*float64(c.Pattern.UsageCount))
		return clampGrouped(patternStoredWeight*c.Pattern.Confidence +
			patternKeywordWeight*c.KeywordScore + usageBonus)
	}
	return clampGrouped(c.FixedConfidence)
}

// Candidates proposes create-mode classifications for the entry.
func (m *PatternMatcher) Candidates(entry *models.BankEntry, ctx *Context) []Candidate {
	var out []Candidate
	out = append(out, m.learnedPatterns(entry, ctx)...)
	out = append(out, m.expenseKeyword(entry, ctx)...)
	out = append(out, m.borrowerNames(entry, ctx)...)
	out = append(out, m.investorNames(entry, ctx)...)
	return out
}

// learnedPatterns matches the entry description against stored patterns via
// keyword overlap, filtered by the pattern's sign and amount range.
func (m *PatternMatcher) learnedPatterns(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	entryKeywords := scoring.ExtractKeywords(entry.Description)
	if len(entryKeywords) == 0 {
		return nil
	}

	var out []Candidate
	for _, p := range ctx.Patterns() {
		if !p.AllowsDirection(entry.Direction()) || !p.AllowsAmount(entry.AbsAmount()) {
			continue
		}
		score := scoring.KeywordOverlap(scoring.ExtractKeywords(p.Template), entryKeywords)
		if score < cfg.PatternScoreFloor {
			continue
		}
		out = append(out, Candidate{
			Type:                p.MatchType,
			Mode:                ModeCreate,
			Pattern:             p,
			KeywordScore:        score,
			TargetLoanID:        p.LoanID,
			TargetInvestorID:    p.InvestorID,
			TargetExpenseTypeID: p.ExpenseTypeID,
			Reason:              fmt.Sprintf("matches learned pattern %q (used %d times)", p.Template, p.UsageCount),
		})
	}
	return out
}

// expenseKeyword flags debit entries whose description contains a word from
// the expense dictionary.
func (m *PatternMatcher) expenseKeyword(entry *models.BankEntry, ctx *Context) []Candidate {
	if !entry.IsDebit() {
		return nil
	}
	keyword, ok := scoring.ExpenseKeyword(entry.Description)
	if !ok {
		return nil
	}
	return []Candidate{{
		Type:                models.MatchExpense,
		Mode:                ModeCreate,
		FixedConfidence:     keywordExpenseConfidence,
		TargetExpenseTypeID: ctx.expenseTypeForKeyword(keyword),
		Reason:              fmt.Sprintf("description contains expense keyword %q", keyword),
	}}
}

// borrowerNames proposes a loan classification when a borrower's name shows
// up in the description of an entry that does not read as an expense.
func (m *PatternMatcher) borrowerNames(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config
	if _, expenseFlavored := scoring.ExpenseKeyword(entry.Description); expenseFlavored {
		return nil
	}

	matchType := models.MatchLoanRepayment
	if entry.IsDebit() {
		matchType = models.MatchLoanDisbursement
	}

	var out []Candidate
	for _, loan := range ctx.Loans() {
		if !loan.Active {
			continue
		}
		borrower := ctx.BorrowerForLoan(loan.ID)
		if borrower == nil {
			continue
		}
		similarity := scoring.NameInText(entry.Description, borrower.Name, loan.Reference)
		if similarity <= cfg.NameThreshold {
			continue
		}
		out = append(out, Candidate{
			Type:            matchType,
			Mode:            ModeCreate,
			FixedConfidence: similarity,
			TargetLoanID:    loan.ID,
			Reason:          fmt.Sprintf("description names borrower %s", borrower.Name),
		})
	}
	return out
}

// investorNames proposes an investor classification on a stricter similarity
// threshold; investors named entirely in generic financial vocabulary are
// excluded because they collide with ordinary banking language.
func (m *PatternMatcher) investorNames(entry *models.BankEntry, ctx *Context) []Candidate {
	cfg := ctx.Config

	matchType := models.MatchInvestorCredit
	if entry.IsDebit() {
		matchType = models.MatchInvestorWithdrawal
	}

	var out []Candidate
	for _, id := range sortedKeys(ctx.investors) {
		investor := ctx.investors[id]
		if scoring.IsGenericName(investor.Name) {
			continue
		}
		similarity := scoring.NameInText(entry.Description, investor.Name, "")
		if similarity <= cfg.InvestorNameThreshold {
			continue
		}
		out = append(out, Candidate{
			Type:             matchType,
			Mode:             ModeCreate,
			FixedConfidence:  similarity,
			TargetInvestorID: investor.ID,
			Reason:           fmt.Sprintf("description names investor %s", investor.Name),
		})
	}
	return out
}

// expenseTypeForKeyword resolves an expense type whose name mentions the
// keyword, or "" when none does.
func (ctx *Context) expenseTypeForKeyword(keyword string) string {
	for _, id := range sortedKeys(ctx.expenseTypes) {
		if strings.Contains(strings.ToLower(ctx.expenseTypes[id].Name), keyword) {
			return id
		}
	}
	return ""
}

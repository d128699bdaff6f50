// Package engine holds the strategy registry and the batch runner that turn
// unreconciled bank entries into reconciliation suggestions.
//
// The registry owns the ordered strategy set and picks the single best
// candidate for one entry; the runner drives the whole unreconciled set in
// date order, threading claim state so no ledger record is proposed twice in
// one batch.
package engine

import (
	"sort"

	"lending-reconciliation-service/internal/matchers"
	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/pkg/logger"
)

// Suggestion is the engine's output for one bank entry: the proposed
// accounting event, its shape, the confidence, and every ledger record it
// references.
type Suggestion struct {
	EntryID    string             `json:"entry_id"`
	Type       models.MatchType   `json:"type"`
	Mode       matchers.MatchMode `json:"match_mode"`
	Confidence float64            `json:"confidence"`
	Matcher    string             `json:"matcher_name"`
	Reason     string             `json:"reason"`

	Records []matchers.RecordRef `json:"referenced_records,omitempty"`

	// GroupedEntryIDs lists the companion bank entries consumed alongside
	// the anchor in grouped modes.
	GroupedEntryIDs []string `json:"grouped_entry_ids,omitempty"`

	// Targets for create-mode suggestions.
	TargetLoanID        string `json:"target_loan_id,omitempty"`
	TargetInvestorID    string `json:"target_investor_id,omitempty"`
	TargetExpenseTypeID string `json:"target_expense_type_id,omitempty"`
}

// Registry holds the strategies in priority order and selects the best
// candidate for a single entry.
type Registry struct {
	strategies []matchers.Strategy
	disabled   map[string]bool
	log        logger.Logger
}

// NewRegistry builds a registry with the six standard strategies.
func NewRegistry(log logger.Logger) *Registry {
	return NewRegistryWith(log,
		matchers.NewLoanRepaymentMatcher(),
		matchers.NewLoanDisbursementMatcher(),
		matchers.NewInvestorCreditMatcher(),
		matchers.NewInvestorWithdrawalMatcher(),
		matchers.NewExpenseMatcher(),
		matchers.NewPatternMatcher(),
	)
}

// NewRegistryWith builds a registry over an explicit strategy set, sorted by
// priority descending (ties by name for stable iteration).
func NewRegistryWith(log logger.Logger, strategies ...matchers.Strategy) *Registry {
	if log == nil {
		log = logger.Default()
	}
	sorted := append([]matchers.Strategy(nil), strategies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() > sorted[j].Priority()
		}
		return sorted[i].Name() < sorted[j].Name()
	})
	return &Registry{
		strategies: sorted,
		disabled:   make(map[string]bool),
		log:        log.WithComponent("registry"),
	}
}

// Strategies returns the ordered strategy set.
func (r *Registry) Strategies() []matchers.Strategy {
	return r.strategies
}

// SetEnabled toggles one strategy by name for subsequent runs.
func (r *Registry) SetEnabled(name string, enabled bool) {
	r.disabled[name] = !enabled
}

func (r *Registry) enabled(s matchers.Strategy) bool {
	if r.disabled[s.Name()] {
		return false
	}
	return s.Enabled()
}

// Best runs every applicable strategy against the entry and returns the
// highest-scoring candidate at or above the acceptance floor. Candidates
// touching already-claimed records are skipped. Ties keep the first-seen
// candidate, so higher-priority strategies win equal scores.
func (r *Registry) Best(entry *models.BankEntry, ctx *matchers.Context) (*Suggestion, *matchers.Candidate, bool) {
	var (
		bestScore     float64
		bestCandidate *matchers.Candidate
		bestStrategy  string
	)

	for _, strategy := range r.strategies {
		if !r.enabled(strategy) || !strategy.CanMatch(entry, ctx) {
			continue
		}
		candidates := strategy.Candidates(entry, ctx)
		for i := range candidates {
			c := &candidates[i]
			if ctx.Claims.Blocks(c) {
				continue
			}
			score := strategy.Confidence(c, entry)
			if score < 0 {
				score = 0
			} else if score > 1 {
				score = 1
			}
			if score > bestScore {
				bestScore = score
				bestCandidate = c
				bestStrategy = strategy.Name()
			}
		}
	}

	if bestCandidate == nil || bestScore < ctx.Config.MinConfidence {
		return nil, nil, false
	}

	r.log.WithFields(logger.Fields{
		"entry":      entry.ID,
		"matcher":    bestStrategy,
		"mode":       bestCandidate.Mode,
		"confidence": bestScore,
	}).Debug("candidate selected")

	return suggestionFrom(entry, bestCandidate, bestScore, bestStrategy), bestCandidate, true
}

func suggestionFrom(entry *models.BankEntry, c *matchers.Candidate, score float64, strategy string) *Suggestion {
	s := &Suggestion{
		EntryID:             entry.ID,
		Type:                c.Type,
		Mode:                c.Mode,
		Confidence:          score,
		Matcher:             strategy,
		Reason:              c.Reason,
		Records:             c.RecordRefs(),
		TargetLoanID:        c.TargetLoanID,
		TargetInvestorID:    c.TargetInvestorID,
		TargetExpenseTypeID: c.TargetExpenseTypeID,
	}
	for _, e := range c.GroupedEntries {
		s.GroupedEntryIDs = append(s.GroupedEntryIDs, e.ID)
	}
	return s
}

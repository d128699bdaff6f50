package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"lending-reconciliation-service/internal/matchers"
	"lending-reconciliation-service/internal/models"
	sugerrors "lending-reconciliation-service/pkg/errors"
	"lending-reconciliation-service/pkg/logger"
)

// BatchResult is the outcome of one suggestion run over a dataset.
type BatchResult struct {
	RunID string `json:"run_id"`

	// Suggestions by anchor entry ID. Entries consumed as companions in a
	// grouped suggestion appear in the anchor's GroupedEntryIDs, not here.
	Suggestions map[string]*Suggestion `json:"suggestions"`

	// Unmatched lists entries no strategy could place above the floor.
	Unmatched []string `json:"unmatched"`

	Processed int           `json:"processed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// SuggestedCount returns the number of entries that received a suggestion,
// counting companions consumed by grouped suggestions.
func (r *BatchResult) SuggestedCount() int {
	n := len(r.Suggestions)
	for _, s := range r.Suggestions {
		n += len(s.GroupedEntryIDs)
	}
	return n
}

// Runner drives a whole batch: it orders the unreconciled entries, asks the
// registry for each one's best candidate, and advances the claim state so
// later entries cannot reuse the same ledger records.
type Runner struct {
	registry *Registry
	config   *matchers.Config
	log      logger.Logger
}

// NewRunner builds a runner over the standard registry. A nil config uses the
// defaults.
func NewRunner(cfg *matchers.Config, log logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.Default()
	}
	if cfg == nil {
		cfg = matchers.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, sugerrors.NewConfigurationError(sugerrors.CodeInvalidConfig, "invalid matcher configuration", err)
	}
	return &Runner{
		registry: NewRegistry(log),
		config:   cfg,
		log:      log.WithComponent("runner"),
	}, nil
}

// Registry exposes the runner's strategy registry, for per-run strategy
// toggles.
func (r *Runner) Registry() *Registry { return r.registry }

// Run processes every unreconciled entry in the dataset, oldest first, and
// returns the accepted suggestions keyed by entry ID. The run is
// deterministic for a given dataset and configuration.
func (r *Runner) Run(data *matchers.Dataset) (*BatchResult, error) {
	if data == nil {
		return nil, sugerrors.NewValidationError(sugerrors.CodeInvalidData, "nil dataset", nil)
	}

	started := time.Now()
	result := &BatchResult{
		RunID:       uuid.New().String(),
		Suggestions: make(map[string]*Suggestion),
		StartedAt:   started,
	}

	ctx := matchers.NewContext(data, r.config)
	pending := pendingEntries(data.Entries)

	runLog := r.log.WithField("run_id", result.RunID)
	runLog.WithFields(logger.Fields{
		"entries":  len(pending),
		"loans":    len(data.Loans),
		"patterns": len(data.Patterns),
	}).Info("starting suggestion run")

	tracker := logger.NewBatchTracker(runLog, len(pending), 100)

	for _, entry := range pending {
		// A grouped suggestion earlier in the batch may have consumed
		// this entry as a companion.
		if ctx.Claims.EntryClaimed(entry.ID) {
			continue
		}
		result.Processed++

		if err := entry.Validate(); err != nil {
			runLog.WithError(err).WithField("entry", entry.ID).Warn("skipping invalid entry")
			result.Unmatched = append(result.Unmatched, entry.ID)
			tracker.Record(false)
			continue
		}

		suggestion, candidate, ok := r.registry.Best(entry, ctx)
		if !ok {
			result.Unmatched = append(result.Unmatched, entry.ID)
			tracker.Record(false)
			continue
		}

		ctx.Claims.ClaimCandidate(candidate)
		result.Suggestions[entry.ID] = suggestion
		tracker.Record(true)
	}

	result.Duration = time.Since(started)
	tracker.Finish()
	return result, nil
}

// pendingEntries filters to unreconciled entries and orders them oldest
// first, with ID as the tie-break so runs are reproducible.
func pendingEntries(entries []*models.BankEntry) []*models.BankEntry {
	var out []*models.BankEntry
	for _, e := range entries {
		if e.Reconciled {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

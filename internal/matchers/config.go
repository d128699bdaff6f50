package matchers

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the tunables of the suggestion engine: the acceptance floor,
// amount tolerance, date windows and fuzzy-matching thresholds. The defaults
// reproduce the behavior the matching policies were calibrated against;
// changing the thresholds changes which suggestions clear their gates.
type Config struct {
	// MinConfidence is the floor below which no suggestion is returned.
	MinConfidence float64 `json:"min_confidence"`

	// AmountTolerance is the absolute currency-unit tolerance for amount
	// equality, including grouped sums.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// SingleWindowDays bounds one-to-one candidate generation.
	SingleWindowDays int `json:"single_window_days"`

	// GroupWindowDays bounds same-party grouping and the subset-sum entry
	// pool around the anchor.
	GroupWindowDays int `json:"group_window_days"`

	// DisbursementWindowDays bounds how far grouped debits may sit from the
	// disbursement they cover.
	DisbursementWindowDays int `json:"disbursement_window_days"`

	// DateSearchWindows are the widening windows, in days, for the pure
	// date-window repayment search. Tightest first.
	DateSearchWindows []int `json:"date_search_windows"`

	// MaxSubsetPool and MaxSubsetSize bound the subset-sum search.
	MaxSubsetPool int `json:"max_subset_pool"`
	MaxSubsetSize int `json:"max_subset_size"`

	// NameThreshold is the filter score for borrower-name evidence.
	NameThreshold float64 `json:"name_threshold"`

	// InvestorNameThreshold is the stricter filter for investor-name
	// fallback matching.
	InvestorNameThreshold float64 `json:"investor_name_threshold"`

	// ProximityGate is the date-proximity score two records must reach to be
	// grouped as one movement.
	ProximityGate float64 `json:"proximity_gate"`

	// PatternScoreFloor is the minimum keyword score for a learned pattern
	// to produce a candidate.
	PatternScoreFloor float64 `json:"pattern_score_floor"`
}

// DefaultConfig returns the calibrated default configuration.
func DefaultConfig() *Config {
	return &Config{
		MinConfidence:          0.35,
		AmountTolerance:        decimal.NewFromInt(1),
		SingleWindowDays:       30,
		GroupWindowDays:        3,
		DisbursementWindowDays: 14,
		DateSearchWindows:      []int{1, 3, 7},
		MaxSubsetPool:          12,
		MaxSubsetSize:          5,
		NameThreshold:          0.5,
		InvestorNameThreshold:  0.75,
		ProximityGate:          0.85,
		PatternScoreFloor:      0.5,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.MinConfidence < 0.0 || c.MinConfidence > 1.0 {
		return fmt.Errorf("minimum confidence must be between 0.0 and 1.0: %f", c.MinConfidence)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance)
	}
	if c.SingleWindowDays <= 0 {
		return fmt.Errorf("single match window must be positive: %d", c.SingleWindowDays)
	}
	if c.GroupWindowDays <= 0 {
		return fmt.Errorf("group window must be positive: %d", c.GroupWindowDays)
	}
	if c.DisbursementWindowDays <= 0 {
		return fmt.Errorf("disbursement window must be positive: %d", c.DisbursementWindowDays)
	}
	if len(c.DateSearchWindows) == 0 {
		return fmt.Errorf("at least one date search window is required")
	}
	prev := 0
	for _, w := range c.DateSearchWindows {
		if w <= prev {
			return fmt.Errorf("date search windows must be positive and ascending: %v", c.DateSearchWindows)
		}
		prev = w
	}
	if c.MaxSubsetPool < 2 {
		return fmt.Errorf("subset pool must allow at least 2 items: %d", c.MaxSubsetPool)
	}
	if c.MaxSubsetSize < 2 {
		return fmt.Errorf("subset size must allow at least 2 items: %d", c.MaxSubsetSize)
	}
	for name, v := range map[string]float64{
		"name threshold":          c.NameThreshold,
		"investor name threshold": c.InvestorNameThreshold,
		"proximity gate":          c.ProximityGate,
		"pattern score floor":     c.PatternScoreFloor,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %f", name, v)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	cp.DateSearchWindows = append([]int(nil), c.DateSearchWindows...)
	return &cp
}

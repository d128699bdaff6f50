package matchers

import "math"

// Confidence ceilings. One-to-one matches may approach certainty; grouped and
// pattern-derived suggestions always leave review headroom.
const (
	maxMatchConfidence   = 0.99
	maxGroupedConfidence = 0.95
	maxNameBonus         = 0.15
)

// Penalties for grouping evidence weaker than a shared borrower.
const (
	contactGroupPenalty    = 0.03
	dateWindowGroupPenalty = 0.05
)

func clampMatch(score float64) float64 {
	return math.Max(0, math.Min(score, maxMatchConfidence))
}

func clampGrouped(score float64) float64 {
	return math.Max(0, math.Min(score, maxGroupedConfidence))
}

// nameBonus converts a name-in-description score into a capped confidence
// addition.
func nameBonus(nameScore float64) float64 {
	if nameScore <= 0 {
		return 0
	}
	return math.Min(maxNameBonus, maxNameBonus*nameScore)
}

// groupTier scores a one-entry-to-many-records group by how tightly its
// members cluster in time.
func groupTier(maxPairwiseDays int) float64 {
	switch {
	case maxPairwiseDays <= 1:
		return 0.92
	case maxPairwiseDays <= 3:
		return 0.85
	case maxPairwiseDays <= 7:
		return 0.75
	default:
		return 0.65
	}
}

// basisPenalty returns the deduction for how the group was formed.
func basisPenalty(basis GroupBasis) float64 {
	switch basis {
	case BasisContact:
		return contactGroupPenalty
	case BasisDateWindow:
		return dateWindowGroupPenalty
	default:
		return 0
	}
}

// subsetTier scores a many-entries-to-one-record group by same-day-ness and
// nearness to the ledger record's date.
func subsetTier(sameDay bool, anchorDays int) float64 {
	switch {
	case sameDay && anchorDays <= 1:
		return 0.92
	case anchorDays <= 3:
		return 0.80
	case anchorDays <= 7:
		return 0.75
	default:
		return 0.60
	}
}

// scoreCandidate is the shared confidence function for the ledger-backed
// strategies. Pattern-derived and fixed-score candidates are handled by the
// pattern strategy itself.
func scoreCandidate(c *Candidate) float64 {
	switch c.Mode {
	case ModeMatch:
		return clampMatch(c.BaseScore + nameBonus(c.NameScore))
	case ModeMatchGroup:
		return clampGrouped(groupTier(c.MaxPairwiseDays) - basisPenalty(c.Basis) + nameBonus(c.NameScore))
	case ModeGroupedRepayment, ModeGroupedDisbursement, ModeGroupedInvestor:
		return clampGrouped(subsetTier(c.SameDay, c.AnchorDays) + nameBonus(c.NameScore))
	default:
		return clampGrouped(c.FixedConfidence)
	}
}

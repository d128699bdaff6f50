// Package scoring provides the pure scoring primitives used by the matcher
// strategies: date proximity, amount tolerance tests, blended match scores,
// fuzzy name detection, keyword similarity and a bounded subset-sum search.
//
// Everything in this package is a pure function over its arguments; no state,
// no I/O. The matcher strategies compose these primitives into candidate
// generation and confidence scoring.
package scoring

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// singleMatchDecayDays is the horizon over which the date component of a
// one-to-one match score decays to zero.
const singleMatchDecayDays = 30

// DaysBetween returns the absolute whole-day distance between two dates,
// ignoring time-of-day.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := ad.Sub(bd)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// DatesWithinDays reports whether two dates are at most n whole days apart.
func DatesWithinDays(a, b time.Time, n int) bool {
	return DaysBetween(a, b) <= n
}

// DateProximityScore returns a score in [0,1] that decreases as the dates move
// apart: 1.0 for the same day, 0.9 for adjacent days, and so on down to 0 at
// ten days. A threshold of 0.85 therefore admits only same-day or next-day
// pairs, which is how the grouping heuristics use it.
func DateProximityScore(a, b time.Time) float64 {
	score := 1.0 - 0.1*float64(DaysBetween(a, b))
	if score < 0 {
		return 0
	}
	return score
}

// AmountsMatch reports whether two amounts differ by at most tolerance
// (absolute difference in currency units).
func AmountsMatch(x, y, tolerance decimal.Decimal) bool {
	return x.Sub(y).Abs().LessThanOrEqual(tolerance)
}

// AmountScore scores how closely two unsigned amounts agree: 1.0 for exact
// equality, linearly decaying within the tolerance, 0 beyond it.
func AmountScore(x, y, tolerance decimal.Decimal) float64 {
	diff := x.Abs().Sub(y.Abs()).Abs()
	if diff.IsZero() {
		return 1.0
	}
	if tolerance.IsZero() || diff.GreaterThan(tolerance) {
		return 0.0
	}

	ratio, _ := diff.Div(tolerance).Float64()
	return 1.0 - 0.25*ratio
}

// MatchScore blends amount and date closeness into a single base score for a
// one-to-one candidate. Amount agreement dominates; date distance decays the
// score over a thirty-day horizon.
func MatchScore(entryDate, recordDate time.Time, entryAmount, recordAmount, tolerance decimal.Decimal) float64 {
	amountScore := AmountScore(entryAmount, recordAmount, tolerance)
	if amountScore == 0 {
		return 0
	}

	days := DaysBetween(entryDate, recordDate)
	dateScore := 0.0
	if days <= singleMatchDecayDays {
		dateScore = 1.0 - float64(days)/float64(singleMatchDecayDays)
	}

	return 0.7*amountScore + 0.3*dateScore
}

// NameInText returns a score in [0,1] indicating whether a party's name
// appears in free text. Each name token is searched for in the text tokens
// with tiered credit: exact token 1.0, substring 0.7, close edit distance 0.5.
// The result is the token average; the best of primary and secondary wins.
func NameInText(text, primary, secondary string) float64 {
	best := nameTokenScore(text, primary)
	if s := nameTokenScore(text, secondary); s > best {
		best = s
	}
	return best
}

func nameTokenScore(text, name string) float64 {
	if name == "" {
		return 0
	}

	textTokens := Tokenize(text)
	if len(textTokens) == 0 {
		return 0
	}

	var scored, total float64
	for _, nt := range Tokenize(name) {
		if len(nt) < 2 {
			continue
		}
		total++
		scored += tokenPresence(nt, textTokens)
	}
	if total == 0 {
		return 0
	}
	return scored / total
}

// tokenPresence scores one name token against a token list.
func tokenPresence(token string, candidates []string) float64 {
	best := 0.0
	for _, c := range candidates {
		switch {
		case c == token:
			return 1.0
		case len(token) >= 3 && (containsToken(c, token) || containsToken(token, c)):
			if best < 0.7 {
				best = 0.7
			}
		case len(token) >= 4 && LevenshteinSimilarity(c, token) >= 0.8:
			if best < 0.5 {
				best = 0.5
			}
		}
	}
	return best
}

func containsToken(haystack, needle string) bool {
	return len(haystack) > len(needle) && strings.Contains(haystack, needle)
}

package scoring

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SumItem is a amount-bearing record offered to the subset-sum search. The
// amount is compared unsigned.
type SumItem struct {
	ID     string
	Amount decimal.Decimal
	Date   time.Time
}

// SubsetLimits bounds the subset-sum search so exhaustive enumeration stays
// cheap. Zero values fall back to the defaults.
type SubsetLimits struct {
	// MaxPool caps the number of items considered, anchor included.
	MaxPool int
	// MaxSize caps the size of a returned subset.
	MaxSize int
}

const (
	defaultMaxPool = 12
	defaultMaxSize = 5
)

func (l SubsetLimits) pool() int {
	if l.MaxPool <= 0 {
		return defaultMaxPool
	}
	return l.MaxPool
}

func (l SubsetLimits) size() int {
	if l.MaxSize <= 0 {
		return defaultMaxSize
	}
	return l.MaxSize
}

// FindSubsetSum searches for a subset of items whose unsigned amounts sum to
// target within tolerance and which contains the anchor item. It returns nil
// when no qualifying subset exists.
//
// The search is bounded: items are ranked by date distance to the anchor
// (ties by ID) and only the closest MaxPool survive. Among qualifying subsets
// the smallest wins; at equal size the subset whose members lie closest in
// time to the anchor wins; remaining ties fall to lexical ID order. The same
// inputs therefore always produce the same subset.
func FindSubsetSum(items []SumItem, target decimal.Decimal, anchorID string, tolerance decimal.Decimal, limits SubsetLimits) []SumItem {
	var anchor *SumItem
	rest := make([]SumItem, 0, len(items))
	for i := range items {
		if items[i].ID == anchorID {
			a := items[i]
			anchor = &a
			continue
		}
		rest = append(rest, items[i])
	}
	if anchor == nil {
		return nil
	}

	target = target.Abs()
	anchorAmount := anchor.Amount.Abs()

	// Anchor alone.
	if AmountsMatch(anchorAmount, target, tolerance) {
		return []SumItem{*anchor}
	}

	sort.Slice(rest, func(i, j int) bool {
		di := DaysBetween(rest[i].Date, anchor.Date)
		dj := DaysBetween(rest[j].Date, anchor.Date)
		if di != dj {
			return di < dj
		}
		return rest[i].ID < rest[j].ID
	})
	if max := limits.pool() - 1; len(rest) > max {
		rest = rest[:max]
	}

	remaining := target.Sub(anchorAmount)

	maxOthers := limits.size() - 1
	if maxOthers > len(rest) {
		maxOthers = len(rest)
	}

	for k := 1; k <= maxOthers; k++ {
		var best []int
		bestDist := -1
		forEachCombination(len(rest), k, func(idx []int) {
			sum := decimal.Zero
			dist := 0
			for _, i := range idx {
				sum = sum.Add(rest[i].Amount.Abs())
				dist += DaysBetween(rest[i].Date, anchor.Date)
			}
			if !AmountsMatch(sum, remaining, tolerance) {
				return
			}
			if best == nil || dist < bestDist {
				best = append([]int(nil), idx...)
				bestDist = dist
			}
		})
		if best != nil {
			subset := []SumItem{*anchor}
			for _, i := range best {
				subset = append(subset, rest[i])
			}
			return subset
		}
	}
	return nil
}

// FindMemberSubsetSum searches for a subset of at least minSize items summing
// to target within tolerance, with no anchor requirement. Smaller subsets are
// preferred; at equal size the subset with the smallest date spread wins, then
// lexical ID order. Used when several ledger records together cover one bank
// entry.
func FindMemberSubsetSum(items []SumItem, target decimal.Decimal, tolerance decimal.Decimal, minSize int, limits SubsetLimits) []SumItem {
	if minSize < 1 {
		minSize = 1
	}

	pool := append([]SumItem(nil), items...)
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].Date.Equal(pool[j].Date) {
			return pool[i].Date.Before(pool[j].Date)
		}
		return pool[i].ID < pool[j].ID
	})
	if max := limits.pool(); len(pool) > max {
		pool = pool[:max]
	}

	target = target.Abs()

	maxSize := limits.size()
	if maxSize > len(pool) {
		maxSize = len(pool)
	}

	for k := minSize; k <= maxSize; k++ {
		var best []int
		bestSpread := -1
		forEachCombination(len(pool), k, func(idx []int) {
			sum := decimal.Zero
			for _, i := range idx {
				sum = sum.Add(pool[i].Amount.Abs())
			}
			if !AmountsMatch(sum, target, tolerance) {
				return
			}
			spread := DaysBetween(pool[idx[0]].Date, pool[idx[len(idx)-1]].Date)
			if best == nil || spread < bestSpread {
				best = append([]int(nil), idx...)
				bestSpread = spread
			}
		})
		if best != nil {
			subset := make([]SumItem, 0, len(best))
			for _, i := range best {
				subset = append(subset, pool[i])
			}
			return subset
		}
	}
	return nil
}

// FindWindowGroupSum reproduces the tightest-first repayment window search:
// it tries the whole pool, then every pair, then every triplet, returning the
// first combination whose amounts sum to target within tolerance.
func FindWindowGroupSum(items []SumItem, target decimal.Decimal, tolerance decimal.Decimal) []SumItem {
	if len(items) < 2 {
		return nil
	}

	pool := append([]SumItem(nil), items...)
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].Date.Equal(pool[j].Date) {
			return pool[i].Date.Before(pool[j].Date)
		}
		return pool[i].ID < pool[j].ID
	})

	target = target.Abs()

	whole := decimal.Zero
	for _, it := range pool {
		whole = whole.Add(it.Amount.Abs())
	}
	if AmountsMatch(whole, target, tolerance) {
		return pool
	}

	for _, k := range []int{2, 3} {
		if k > len(pool) {
			break
		}
		var found []SumItem
		forEachCombination(len(pool), k, func(idx []int) {
			if found != nil {
				return
			}
			sum := decimal.Zero
			for _, i := range idx {
				sum = sum.Add(pool[i].Amount.Abs())
			}
			if AmountsMatch(sum, target, tolerance) {
				for _, i := range idx {
					found = append(found, pool[i])
				}
			}
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// FindMixedSubsetSum searches for a combination drawing at least one item
// from each of two pools whose unsigned amounts sum to target within
// tolerance. Smaller combinations win; size ties fall to the order the pools
// are enumerated in (dates ascending, then IDs), so results are
// deterministic. Used for withdrawals that settle capital and interest in one
// bank movement.
func FindMixedSubsetSum(a, b []SumItem, target decimal.Decimal, tolerance decimal.Decimal, limits SubsetLimits) (fromA, fromB []SumItem) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	sortItems := func(items []SumItem) []SumItem {
		s := append([]SumItem(nil), items...)
		sort.Slice(s, func(i, j int) bool {
			if !s[i].Date.Equal(s[j].Date) {
				return s[i].Date.Before(s[j].Date)
			}
			return s[i].ID < s[j].ID
		})
		if max := limits.pool(); len(s) > max {
			s = s[:max]
		}
		return s
	}
	a, b = sortItems(a), sortItems(b)

	target = target.Abs()
	maxSize := limits.size()

	// Total size ascending keeps the smallest qualifying combination first.
	for total := 2; total <= maxSize; total++ {
		for ka := 1; ka < total; ka++ {
			kb := total - ka
			if ka > len(a) || kb > len(b) {
				continue
			}
			var found bool
			forEachCombination(len(a), ka, func(ia []int) {
				if found {
					return
				}
				sumA := decimal.Zero
				for _, i := range ia {
					sumA = sumA.Add(a[i].Amount.Abs())
				}
				remainder := target.Sub(sumA)
				if remainder.IsNegative() && remainder.Abs().GreaterThan(tolerance) {
					return
				}
				forEachCombination(len(b), kb, func(ib []int) {
					if found {
						return
					}
					sumB := decimal.Zero
					for _, i := range ib {
						sumB = sumB.Add(b[i].Amount.Abs())
					}
					if !AmountsMatch(sumA.Add(sumB), target, tolerance) {
						return
					}
					found = true
					for _, i := range ia {
						fromA = append(fromA, a[i])
					}
					for _, i := range ib {
						fromB = append(fromB, b[i])
					}
				})
			})
			if found {
				return fromA, fromB
			}
		}
	}
	return nil, nil
}

// forEachCombination visits every k-combination of {0..n-1} in lexicographic
// order.
func forEachCombination(n, k int, visit func(idx []int)) {
	if k <= 0 || k > n {
		return
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		visit(idx)

		// Advance to the next combination.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

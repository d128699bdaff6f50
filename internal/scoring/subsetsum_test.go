package scoring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func item(id, amount string, d time.Time) SumItem {
	return SumItem{ID: id, Amount: decimal.RequireFromString(amount), Date: d}
}

func ids(items []SumItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func sameIDs(got []SumItem, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]bool, len(got))
	for _, it := range got {
		seen[it.ID] = true
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
	}
	return true
}

func TestFindSubsetSum(t *testing.T) {
	base := date(2026, 3, 10)
	tol := decimal.NewFromInt(1)

	items := []SumItem{
		item("a", "1400.00", base),
		item("b", "1000.00", base.AddDate(0, 0, 1)),
		item("c", "999.00", base.AddDate(0, 0, 6)),
		item("d", "5000.00", base.AddDate(0, 0, 2)),
	}

	t.Run("anchor plus one", func(t *testing.T) {
		got := FindSubsetSum(items, decimal.RequireFromString("2400.00"), "a", tol, SubsetLimits{})
		if !sameIDs(got, "a", "b") {
			t.Errorf("subset = %v, want [a b]", ids(got))
		}
	})

	t.Run("anchor alone", func(t *testing.T) {
		got := FindSubsetSum(items, decimal.RequireFromString("1400.50"), "a", tol, SubsetLimits{})
		if !sameIDs(got, "a") {
			t.Errorf("subset = %v, want [a]", ids(got))
		}
	})

	t.Run("closer date wins ties", func(t *testing.T) {
		// Both b and c complete the sum within tolerance; b is one day
		// from the anchor, c is six.
		got := FindSubsetSum(items, decimal.RequireFromString("2399.50"), "a", tol, SubsetLimits{})
		if !sameIDs(got, "a", "b") {
			t.Errorf("subset = %v, want [a b]", ids(got))
		}
	})

	t.Run("missing anchor", func(t *testing.T) {
		if got := FindSubsetSum(items, decimal.RequireFromString("2400.00"), "zz", tol, SubsetLimits{}); got != nil {
			t.Errorf("subset = %v, want nil", ids(got))
		}
	})

	t.Run("no solution", func(t *testing.T) {
		if got := FindSubsetSum(items, decimal.RequireFromString("100.00"), "a", tol, SubsetLimits{}); got != nil {
			t.Errorf("subset = %v, want nil", ids(got))
		}
	})

	t.Run("negative amounts compare unsigned", func(t *testing.T) {
		neg := []SumItem{
			item("a", "-6000.00", base),
			item("b", "-4000.00", base.AddDate(0, 0, 2)),
		}
		got := FindSubsetSum(neg, decimal.RequireFromString("10000.00"), "a", tol, SubsetLimits{})
		if !sameIDs(got, "a", "b") {
			t.Errorf("subset = %v, want [a b]", ids(got))
		}
	})
}

func TestFindSubsetSumDeterministic(t *testing.T) {
	base := date(2026, 3, 10)
	tol := decimal.NewFromInt(1)
	items := []SumItem{
		item("e", "500.00", base),
		item("b", "500.00", base),
		item("a", "1000.00", base),
	}

	// e and b are interchangeable; lexical ID order must break the tie the
	// same way every run.
	for i := 0; i < 5; i++ {
		got := FindSubsetSum(items, decimal.RequireFromString("1500.00"), "a", tol, SubsetLimits{})
		if !sameIDs(got, "a", "b") {
			t.Fatalf("run %d: subset = %v, want [a b]", i, ids(got))
		}
	}
}

func TestFindSubsetSumRespectsLimits(t *testing.T) {
	base := date(2026, 3, 10)
	tol := decimal.Zero

	// The completing item sits outside a pool of 3 (anchor plus two
	// nearer-dated items).
	items := []SumItem{
		item("anchor", "100.00", base),
		item("near1", "7.00", base),
		item("near2", "8.00", base),
		item("far", "50.00", base.AddDate(0, 0, 9)),
	}
	got := FindSubsetSum(items, decimal.RequireFromString("150.00"), "anchor", tol, SubsetLimits{MaxPool: 3, MaxSize: 5})
	if got != nil {
		t.Errorf("subset = %v, want nil under pool cap", ids(got))
	}
}

func TestFindMemberSubsetSum(t *testing.T) {
	base := date(2026, 3, 10)
	tol := decimal.NewFromInt(1)

	items := []SumItem{
		item("r1", "800.00", base),
		item("r2", "700.00", base),
		item("r3", "1500.00", base.AddDate(0, 0, 1)),
	}

	t.Run("min size two skips the single record", func(t *testing.T) {
		got := FindMemberSubsetSum(items, decimal.RequireFromString("1500.00"), tol, 2, SubsetLimits{})
		if !sameIDs(got, "r1", "r2") {
			t.Errorf("subset = %v, want [r1 r2]", ids(got))
		}
	})

	t.Run("min size one takes the single record", func(t *testing.T) {
		got := FindMemberSubsetSum(items, decimal.RequireFromString("1500.00"), tol, 1, SubsetLimits{})
		if len(got) != 1 {
			t.Errorf("subset = %v, want one record", ids(got))
		}
	})

	t.Run("no solution", func(t *testing.T) {
		if got := FindMemberSubsetSum(items, decimal.RequireFromString("99.00"), tol, 2, SubsetLimits{}); got != nil {
			t.Errorf("subset = %v, want nil", ids(got))
		}
	})
}

func TestFindWindowGroupSum(t *testing.T) {
	base := date(2026, 3, 10)
	tol := decimal.NewFromInt(1)

	t.Run("whole set first", func(t *testing.T) {
		items := []SumItem{
			item("a", "500.00", base),
			item("b", "300.00", base),
			item("c", "200.00", base),
		}
		got := FindWindowGroupSum(items, decimal.RequireFromString("1000.00"), tol)
		if !sameIDs(got, "a", "b", "c") {
			t.Errorf("group = %v, want whole set", ids(got))
		}
	})

	t.Run("pair within larger pool", func(t *testing.T) {
		items := []SumItem{
			item("a", "500.00", base),
			item("b", "300.00", base),
			item("c", "999.00", base),
		}
		got := FindWindowGroupSum(items, decimal.RequireFromString("800.00"), tol)
		if !sameIDs(got, "a", "b") {
			t.Errorf("group = %v, want [a b]", ids(got))
		}
	})

	t.Run("needs at least two", func(t *testing.T) {
		items := []SumItem{item("only", "800.00", base)}
		if got := FindWindowGroupSum(items, decimal.RequireFromString("800.00"), tol); got != nil {
			t.Errorf("group = %v, want nil", ids(got))
		}
	})
}

func TestFindMixedSubsetSum(t *testing.T) {
	base := date(2026, 3, 20)
	tol := decimal.NewFromInt(1)

	capital := []SumItem{
		item("cap1", "3000.00", base),
		item("cap2", "9000.00", base),
	}
	interest := []SumItem{
		item("int1", "150.00", base),
		item("int2", "90.00", base),
	}

	t.Run("one from each", func(t *testing.T) {
		fromA, fromB := FindMixedSubsetSum(capital, interest, decimal.RequireFromString("3150.00"), tol, SubsetLimits{})
		if !sameIDs(fromA, "cap1") || !sameIDs(fromB, "int1") {
			t.Errorf("mixed = %v + %v, want [cap1] + [int1]", ids(fromA), ids(fromB))
		}
	})

	t.Run("one capital two interest", func(t *testing.T) {
		fromA, fromB := FindMixedSubsetSum(capital, interest, decimal.RequireFromString("3240.00"), tol, SubsetLimits{})
		if !sameIDs(fromA, "cap1") || !sameIDs(fromB, "int1", "int2") {
			t.Errorf("mixed = %v + %v, want [cap1] + [int1 int2]", ids(fromA), ids(fromB))
		}
	})

	t.Run("requires both pools", func(t *testing.T) {
		fromA, fromB := FindMixedSubsetSum(capital, nil, decimal.RequireFromString("3000.00"), tol, SubsetLimits{})
		if fromA != nil || fromB != nil {
			t.Error("expected no result with an empty pool")
		}
	})

	t.Run("no solution", func(t *testing.T) {
		fromA, fromB := FindMixedSubsetSum(capital, interest, decimal.RequireFromString("77.00"), tol, SubsetLimits{})
		if fromA != nil || fromB != nil {
			t.Errorf("mixed = %v + %v, want none", ids(fromA), ids(fromB))
		}
	})
}

package matchers

import (
	"testing"

	"lending-reconciliation-service/internal/models"
)

func createInvestors() []*models.Investor {
	return []*models.Investor{
		{ID: "inv-1", Name: "Dewi Lestari", Email: "dewi@example.com"},
		{ID: "inv-2", Name: "Eko Wijaya", Email: "eko@example.com"},
	}
}

func TestInvestorCreditSingleMatch(t *testing.T) {
	m := NewInvestorCreditMatcher()
	entry := createEntry("e-1", "7500", 6, "investment Dewi Lestari")
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{entry},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-1", models.CapitalIn, "7500", 6)},
	})

	candidates := m.Candidates(entry, ctx)
	cand := findByMode(candidates, ModeMatch)
	if cand == nil {
		t.Fatal("expected a one-to-one candidate")
	}
	if cand.Type != models.MatchInvestorCredit {
		t.Errorf("expected type %s, got %s", models.MatchInvestorCredit, cand.Type)
	}
	if conf := m.Confidence(cand, entry); conf < 0.95 {
		t.Errorf("same-day exact deposit with a name hit should score high, got %f", conf)
	}
}

func TestInvestorCreditIgnoresWithdrawals(t *testing.T) {
	m := NewInvestorCreditMatcher()
	entry := createEntry("e-1", "7500", 6, "investment")
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{entry},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-1", models.CapitalOut, "7500", 6)},
	})

	if candidates := m.Candidates(entry, ctx); len(candidates) != 0 {
		t.Errorf("capital_out is not deposit material, got %d candidates", len(candidates))
	}
}

func TestInvestorCreditSameInvestorGroup(t *testing.T) {
	m := NewInvestorCreditMatcher()
	entry := createEntry("e-1", "7500", 6, "capital top up Dewi Lestari")
	ctx := createContext(&Dataset{
		Entries:   []*models.BankEntry{entry},
		Investors: createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{
			createInvestorTxn("it-1", "inv-1", models.CapitalIn, "4000", 6),
			createInvestorTxn("it-2", "inv-1", models.CapitalIn, "3500", 6),
		},
	})

	candidates := m.Candidates(entry, ctx)
	cand := findByMode(candidates, ModeMatchGroup)
	if cand == nil {
		t.Fatal("expected a same-investor group candidate")
	}
	if cand.Basis != BasisInvestor {
		t.Errorf("expected basis %s, got %s", BasisInvestor, cand.Basis)
	}
	if len(cand.InvestorTransactions) != 2 {
		t.Fatalf("expected 2 deposits in the group, got %d", len(cand.InvestorTransactions))
	}
	if conf := m.Confidence(cand, entry); !closeTo(conf, 0.95) {
		t.Errorf("same-day investor group with a full name hit should cap at 0.95, got %f", conf)
	}
}

func TestInvestorCreditGroupRequiresProximity(t *testing.T) {
	m := NewInvestorCreditMatcher()
	entry := createEntry("e-1", "7500", 6, "capital top up")
	// The second deposit is two days out, past the proximity gate.
	ctx := createContext(&Dataset{
		Entries:   []*models.BankEntry{entry},
		Investors: createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{
			createInvestorTxn("it-1", "inv-1", models.CapitalIn, "4000", 6),
			createInvestorTxn("it-2", "inv-1", models.CapitalIn, "3500", 8),
		},
	})

	if cand := findByMode(m.Candidates(entry, ctx), ModeMatchGroup); cand != nil {
		t.Errorf("deposits past the proximity gate should not group, got %q", cand.Reason)
	}
}

func TestInvestorCreditGroupedEntries(t *testing.T) {
	m := NewInvestorCreditMatcher()
	anchor := createEntry("e-1", "5000", 6, "Dewi Lestari capital first half")
	companion := createEntry("e-2", "4000", 6, "Dewi Lestari capital second half")
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{anchor, companion},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-1", models.CapitalIn, "9000", 6)},
	})

	candidates := m.Candidates(anchor, ctx)
	cand := findByMode(candidates, ModeGroupedInvestor)
	if cand == nil {
		t.Fatal("expected a grouped-investor candidate")
	}
	if len(cand.GroupedEntries) != 1 || cand.GroupedEntries[0].ID != "e-2" {
		t.Errorf("companion e-2 should be in the group, got %+v", cand.GroupedEntries)
	}
	if conf := m.Confidence(cand, anchor); !closeTo(conf, 0.95) {
		t.Errorf("same-day grouped deposit with a full name hit should cap at 0.95, got %f", conf)
	}
}

func TestInvestorWithdrawalSingleCapital(t *testing.T) {
	m := NewInvestorWithdrawalMatcher()
	entry := createEntry("e-1", "-3000", 7, "capital return Eko Wijaya")
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{entry},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-2", models.CapitalOut, "3000", 7)},
	})

	candidates := m.Candidates(entry, ctx)
	cand := findByMode(candidates, ModeMatch)
	if cand == nil {
		t.Fatal("expected a one-to-one candidate")
	}
	if cand.Type != models.MatchInvestorWithdrawal {
		t.Errorf("expected type %s, got %s", models.MatchInvestorWithdrawal, cand.Type)
	}
	if len(cand.InvestorTransactions) != 1 || cand.InvestorTransactions[0].ID != "it-1" {
		t.Errorf("candidate should reference it-1, got %+v", cand.InvestorTransactions)
	}
}

func TestInvestorWithdrawalSingleInterest(t *testing.T) {
	m := NewInvestorWithdrawalMatcher()
	entry := createEntry("e-1", "-150", 7, "interest payout Eko Wijaya")
	ctx := createContext(&Dataset{
		Entries:         []*models.BankEntry{entry},
		Investors:       createInvestors(),
		InterestEntries: []*models.InvestorInterestEntry{createInterestEntry("ie-1", "inv-2", models.InterestDebit, "150", 7)},
	})

	candidates := m.Candidates(entry, ctx)
	cand := findByMode(candidates, ModeMatch)
	if cand == nil {
		t.Fatal("expected a one-to-one candidate")
	}
	if len(cand.InterestEntries) != 1 || cand.InterestEntries[0].ID != "ie-1" {
		t.Errorf("candidate should reference ie-1, got %+v", cand.InterestEntries)
	}
}

func TestInvestorWithdrawalIgnoresInterestCredits(t *testing.T) {
	m := NewInvestorWithdrawalMatcher()
	entry := createEntry("e-1", "-150", 7, "interest payout")
	// Accrued interest is a credit on the interest account; it never leaves
	// the bank.
	ctx := createContext(&Dataset{
		Entries:         []*models.BankEntry{entry},
		Investors:       createInvestors(),
		InterestEntries: []*models.InvestorInterestEntry{createInterestEntry("ie-1", "inv-2", models.InterestCredit, "150", 7)},
	})

	if candidates := m.Candidates(entry, ctx); len(candidates) != 0 {
		t.Errorf("interest credits should not be proposed, got %d candidates", len(candidates))
	}
}

func TestInvestorWithdrawalCrossTable(t *testing.T) {
	m := NewInvestorWithdrawalMatcher()
	entry := createEntry("e-1", "-3150", 7, "payout Eko Wijaya")
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{entry},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-2", models.CapitalOut, "3000", 7)},
		InterestEntries:      []*models.InvestorInterestEntry{createInterestEntry("ie-1", "inv-2", models.InterestDebit, "150", 7)},
	})

	candidates := m.Candidates(entry, ctx)
	if len(candidates) != 1 {
		t.Fatalf("expected exactly the cross-table candidate, got %d", len(candidates))
	}
	cand := &candidates[0]
	if cand.Mode != ModeMatchGroup {
		t.Fatalf("expected mode %s, got %s", ModeMatchGroup, cand.Mode)
	}
	if len(cand.InvestorTransactions) != 1 || len(cand.InterestEntries) != 1 {
		t.Errorf("expected one capital and one interest record, got %d and %d",
			len(cand.InvestorTransactions), len(cand.InterestEntries))
	}
	if conf := m.Confidence(cand, entry); !closeTo(conf, 0.95) {
		t.Errorf("same-day cross-table payout with a full name hit should cap at 0.95, got %f", conf)
	}
}

func TestInvestorWithdrawalCrossTableRequiresSameInvestor(t *testing.T) {
	m := NewInvestorWithdrawalMatcher()
	entry := createEntry("e-1", "-3150", 7, "payout")
	// Capital and interest belong to different investors; the combination
	// must not be offered.
	ctx := createContext(&Dataset{
		Entries:              []*models.BankEntry{entry},
		Investors:            createInvestors(),
		InvestorTransactions: []*models.InvestorTransaction{createInvestorTxn("it-1", "inv-1", models.CapitalOut, "3000", 7)},
		InterestEntries:      []*models.InvestorInterestEntry{createInterestEntry("ie-1", "inv-2", models.InterestDebit, "150", 7)},
	})

	if candidates := m.Candidates(entry, ctx); len(candidates) != 0 {
		t.Errorf("cross-table groups must stay within one investor, got %d candidates", len(candidates))
	}
}

// Command generate writes sample statement and ledger datasets for manual
// runs of the suggester CLI. Each scenario seeds a bank entry together with
// the ledger records its matcher should find, so a run over the generated
// files exercises every strategy.
//
// Usage:
//
//	go run generate.go -output-dir=../generated
//	suggester suggest -e ../generated/entries.csv -r ../generated/ledger.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

type bankEntry struct {
	ID          string
	Date        time.Time
	Amount      string
	Description string
}

type ledger struct {
	Loans                []map[string]interface{} `json:"loans"`
	Borrowers            []map[string]interface{} `json:"borrowers"`
	LoanTransactions     []map[string]interface{} `json:"loan_transactions"`
	Investors            []map[string]interface{} `json:"investors"`
	InvestorTransactions []map[string]interface{} `json:"investor_transactions"`
	InterestEntries      []map[string]interface{} `json:"interest_entries"`
	Expenses             []map[string]interface{} `json:"expenses"`
	ExpenseTypes         []map[string]interface{} `json:"expense_types"`
	Patterns             []map[string]interface{} `json:"patterns"`
}

func main() {
	var (
		outputDir = flag.String("output-dir", "../generated", "output directory for generated files")
		seed      = flag.Int64("seed", 42, "random seed for noise entries")
		noise     = flag.Int("noise", 10, "number of unmatched noise entries")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	entries, book := buildScenarios(base)
	entries = append(entries, noiseEntries(rng, base, *noise)...)

	entriesPath := filepath.Join(*outputDir, "entries.csv")
	if err := writeEntries(entriesPath, entries); err != nil {
		log.Fatalf("failed to write entries: %v", err)
	}
	ledgerPath := filepath.Join(*outputDir, "ledger.json")
	if err := writeLedger(ledgerPath, book); err != nil {
		log.Fatalf("failed to write ledger: %v", err)
	}

	fmt.Printf("Generated %d entries -> %s\n", len(entries), entriesPath)
	fmt.Printf("Generated ledger -> %s\n", ledgerPath)
}

// day renders a ledger date. The bundle decodes into time.Time fields, so
// RFC 3339 is required here; the CSV side uses bare dates.
func day(base time.Time, offset int) string {
	return base.AddDate(0, 0, offset).Format(time.RFC3339)
}

func buildScenarios(base time.Time) ([]bankEntry, *ledger) {
	book := &ledger{
		Borrowers: []map[string]interface{}{
			{"id": "b-1", "name": "Aulia Rahman", "email": "aulia@example.com"},
			{"id": "b-2", "name": "Budi Santoso", "email": "family@example.com"},
			{"id": "b-3", "name": "Citra Santoso", "email": "family@example.com"},
		},
		Loans: []map[string]interface{}{
			{"id": "l-1", "borrower_id": "b-1", "reference": "LN-2026-001", "active": true},
			{"id": "l-2", "borrower_id": "b-2", "reference": "LN-2026-002", "active": true},
			{"id": "l-3", "borrower_id": "b-3", "reference": "LN-2026-003", "active": true},
		},
		Investors: []map[string]interface{}{
			{"id": "i-1", "name": "Dewi Lestari"},
			{"id": "i-2", "name": "Eko Wijaya"},
		},
		ExpenseTypes: []map[string]interface{}{
			{"id": "et-1", "name": "Electricity"},
			{"id": "et-2", "name": "Office Rent"},
		},
	}

	var entries []bankEntry

	// One repayment, one credit, exact amount, close date.
	book.LoanTransactions = append(book.LoanTransactions, map[string]interface{}{
		"id": "lt-1", "loan_id": "l-1", "type": "repayment",
		"amount": "1500.00", "date": day(base, 0),
	})
	entries = append(entries, bankEntry{"e-1", base.AddDate(0, 0, 1), "1500.00", "transfer Aulia Rahman LN-2026-001"})

	// A repayment paid across two bank transfers on neighboring days.
	book.LoanTransactions = append(book.LoanTransactions, map[string]interface{}{
		"id": "lt-2", "loan_id": "l-2", "type": "repayment",
		"amount": "2400.00", "date": day(base, 7),
	})
	entries = append(entries,
		bankEntry{"e-2", base.AddDate(0, 0, 7), "1400.00", "Budi Santoso installment part 1"},
		bankEntry{"e-3", base.AddDate(0, 0, 8), "1000.00", "Budi Santoso installment part 2"},
	)

	// Two repayments from family members settled with one transfer, joined
	// through the shared contact email.
	book.LoanTransactions = append(book.LoanTransactions,
		map[string]interface{}{"id": "lt-3", "loan_id": "l-2", "type": "repayment", "amount": "800.00", "date": day(base, 14)},
		map[string]interface{}{"id": "lt-4", "loan_id": "l-3", "type": "repayment", "amount": "700.00", "date": day(base, 14)},
	)
	entries = append(entries, bankEntry{"e-4", base.AddDate(0, 0, 14), "1500.00", "Santoso family repayment"})

	// A disbursement wired out in two tranches.
	book.LoanTransactions = append(book.LoanTransactions, map[string]interface{}{
		"id": "lt-5", "loan_id": "l-3", "type": "disbursement",
		"amount": "10000.00", "date": day(base, 3),
	})
	entries = append(entries,
		bankEntry{"e-5", base.AddDate(0, 0, 3), "-6000.00", "disbursement LN-2026-003 tranche 1"},
		bankEntry{"e-6", base.AddDate(0, 0, 5), "-4000.00", "disbursement LN-2026-003 tranche 2"},
	)

	// Investor deposit split into two capital movements booked the same day.
	book.InvestorTransactions = append(book.InvestorTransactions,
		map[string]interface{}{"id": "it-1", "investor_id": "i-1", "type": "capital_in", "amount": "5000.00", "date": day(base, 10)},
		map[string]interface{}{"id": "it-2", "investor_id": "i-1", "type": "capital_in", "amount": "2500.00", "date": day(base, 10)},
	)
	entries = append(entries, bankEntry{"e-7", base.AddDate(0, 0, 10), "7500.00", "Dewi Lestari deposit"})

	// One payout covering a capital withdrawal plus accrued interest.
	book.InvestorTransactions = append(book.InvestorTransactions, map[string]interface{}{
		"id": "it-3", "investor_id": "i-2", "type": "capital_out", "amount": "3000.00", "date": day(base, 20),
	})
	book.InterestEntries = append(book.InterestEntries, map[string]interface{}{
		"id": "ie-1", "investor_id": "i-2", "type": "debit", "amount": "150.00", "date": day(base, 20),
	})
	entries = append(entries, bankEntry{"e-8", base.AddDate(0, 0, 20), "-3150.00", "payout Eko Wijaya capital and interest"})

	// A recorded expense awaiting its bank debit.
	book.Expenses = append(book.Expenses, map[string]interface{}{
		"id": "x-1", "expense_type_id": "et-2", "amount": "1200.00", "date": day(base, 1),
	})
	entries = append(entries, bankEntry{"e-9", base.AddDate(0, 0, 1), "-1200.00", "office rent March"})

	// No ledger record at all; the keyword fallback should propose creating
	// an electricity expense.
	entries = append(entries, bankEntry{"e-10", base.AddDate(0, 0, 12), "-85.50", "PLN electricity bill"})

	// A learned pattern for a recurring fee.
	book.Patterns = append(book.Patterns, map[string]interface{}{
		"id": "p-1", "template": "monthly platform fee", "entry_filter": "debit",
		"match_type": "expense", "expense_type_id": "et-2",
		"usage_count": 6, "confidence": 0.8,
	})
	entries = append(entries, bankEntry{"e-11", base.AddDate(0, 0, 15), "-250.00", "monthly platform fee March"})

	return entries, book
}

func noiseEntries(rng *rand.Rand, base time.Time, n int) []bankEntry {
	descriptions := []string{
		"atm withdrawal", "card purchase", "bank charges",
		"unknown transfer", "cash deposit",
	}
	out := make([]bankEntry, 0, n)
	for i := 0; i < n; i++ {
		amount := float64(rng.Intn(90000)+500) / 100
		if rng.Intn(2) == 0 {
			amount = -amount
		}
		out = append(out, bankEntry{
			ID:          fmt.Sprintf("noise-%d", i+1),
			Date:        base.AddDate(0, 0, rng.Intn(28)),
			Amount:      fmt.Sprintf("%.2f", amount),
			Description: descriptions[rng.Intn(len(descriptions))],
		})
	}
	return out
}

func writeEntries(path string, entries []bankEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"id", "date", "amount", "description"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.ID, e.Date.Format("2006-01-02"), e.Amount, e.Description}); err != nil {
			return err
		}
	}
	return nil
}

func writeLedger(path string, book *ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(book)
}

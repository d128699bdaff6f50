package matchers

import (
	"sort"
	"strings"
	"time"

	"lending-reconciliation-service/internal/models"
	"lending-reconciliation-service/internal/scoring"
)

// maxPairwiseDays returns the largest whole-day distance between any two of
// the given dates.
func maxPairwiseDays(dates []time.Time) int {
	max := 0
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if d := scoring.DaysBetween(dates[i], dates[j]); d > max {
				max = d
			}
		}
	}
	return max
}

// anchorStats summarizes how a group of bank entries sits relative to a
// ledger record's date: whether all entries share one statement date, and the
// farthest any entry is from the record.
func anchorStats(entries []*models.BankEntry, recordDate time.Time) (sameDay bool, anchorDays int) {
	sameDay = true
	for _, e := range entries {
		if d := scoring.DaysBetween(e.Date, recordDate); d > anchorDays {
			anchorDays = d
		}
		if !e.Date.Truncate(24 * time.Hour).Equal(entries[0].Date.Truncate(24 * time.Hour)) {
			sameDay = false
		}
	}
	return sameDay, anchorDays
}

// loanTxnItems converts loan transactions into subset-sum material.
func loanTxnItems(txns []*models.LoanTransaction) []scoring.SumItem {
	items := make([]scoring.SumItem, 0, len(txns))
	for _, t := range txns {
		items = append(items, scoring.SumItem{ID: t.ID, Amount: t.Amount, Date: t.Date})
	}
	return items
}

// investorTxnItems converts investor transactions into subset-sum material.
func investorTxnItems(txns []*models.InvestorTransaction) []scoring.SumItem {
	items := make([]scoring.SumItem, 0, len(txns))
	for _, t := range txns {
		items = append(items, scoring.SumItem{ID: t.ID, Amount: t.Amount, Date: t.Date})
	}
	return items
}

// entryItems converts bank entries into subset-sum material.
func entryItems(entries []*models.BankEntry) []scoring.SumItem {
	items := make([]scoring.SumItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, scoring.SumItem{ID: e.ID, Amount: e.Amount, Date: e.Date})
	}
	return items
}

// pickLoanTxns resolves subset-sum results back to loan transactions.
func pickLoanTxns(txns []*models.LoanTransaction, items []scoring.SumItem) []*models.LoanTransaction {
	byID := make(map[string]*models.LoanTransaction, len(txns))
	for _, t := range txns {
		byID[t.ID] = t
	}
	out := make([]*models.LoanTransaction, 0, len(items))
	for _, it := range items {
		if t := byID[it.ID]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// pickInvestorTxns resolves subset-sum results back to investor transactions.
func pickInvestorTxns(txns []*models.InvestorTransaction, items []scoring.SumItem) []*models.InvestorTransaction {
	byID := make(map[string]*models.InvestorTransaction, len(txns))
	for _, t := range txns {
		byID[t.ID] = t
	}
	out := make([]*models.InvestorTransaction, 0, len(items))
	for _, it := range items {
		if t := byID[it.ID]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// pickEntries resolves subset-sum results back to bank entries, anchor first.
func pickEntries(anchor *models.BankEntry, companions []*models.BankEntry, items []scoring.SumItem) (group, others []*models.BankEntry) {
	byID := make(map[string]*models.BankEntry, len(companions)+1)
	byID[anchor.ID] = anchor
	for _, e := range companions {
		byID[e.ID] = e
	}

	group = append(group, anchor)
	for _, it := range items {
		if it.ID == anchor.ID {
			continue
		}
		if e := byID[it.ID]; e != nil {
			group = append(group, e)
			others = append(others, e)
		}
	}
	return group, others
}

// txnDates extracts loan transaction dates.
func txnDates(txns []*models.LoanTransaction) []time.Time {
	dates := make([]time.Time, 0, len(txns))
	for _, t := range txns {
		dates = append(dates, t.Date)
	}
	return dates
}

// withinDaysOf filters loan transactions to those at most days from ref.
func withinDaysOf(txns []*models.LoanTransaction, ref time.Time, days int) []*models.LoanTransaction {
	var out []*models.LoanTransaction
	for _, t := range txns {
		if scoring.DatesWithinDays(t.Date, ref, days) {
			out = append(out, t)
		}
	}
	return out
}

// entriesWithinDays filters bank entries to those at most days from ref.
func entriesWithinDays(entries []*models.BankEntry, ref time.Time, days int) []*models.BankEntry {
	var out []*models.BankEntry
	for _, e := range entries {
		if scoring.DatesWithinDays(e.Date, ref, days) {
			out = append(out, e)
		}
	}
	return out
}

// subsetEvidence gates a many-entries-to-one-record group: mere numeric
// coincidence is rejected unless the entries read as one payer or every entry
// mentions the counterparty by name.
func subsetEvidence(group []*models.BankEntry, counterparty string, nameThreshold float64) bool {
	descriptions := make([]string, 0, len(group))
	for _, e := range group {
		descriptions = append(descriptions, e.Description)
	}
	if scoring.GroupRelatedDescriptions(descriptions) {
		return true
	}
	if counterparty == "" {
		return false
	}
	for _, e := range group {
		if scoring.NameInText(e.Description, counterparty, "") <= nameThreshold {
			return false
		}
	}
	return true
}

// joinIDs renders record IDs for reason strings.
func joinIDs(refs []RecordRef) string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return strings.Join(ids, ", ")
}

// sortedKeys returns a map's keys in sorted order, so candidate generation
// over maps stays deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

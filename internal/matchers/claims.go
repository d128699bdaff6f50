package matchers

// Claims tracks the ledger records and bank entries already assigned to a
// suggestion in the current batch, so the same record is never proposed for
// two different bank lines in one pass. It is per-run state owned by the
// caller and threaded through processing; nothing here is shared between
// batches.
type Claims struct {
	loanTransactions     map[string]struct{}
	investorTransactions map[string]struct{}
	interestEntries      map[string]struct{}
	expenses             map[string]struct{}
	entries              map[string]struct{}
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims {
	return &Claims{
		loanTransactions:     make(map[string]struct{}),
		investorTransactions: make(map[string]struct{}),
		interestEntries:      make(map[string]struct{}),
		expenses:             make(map[string]struct{}),
		entries:              make(map[string]struct{}),
	}
}

func (c *Claims) familySet(family RecordFamily) map[string]struct{} {
	switch family {
	case FamilyLoanTransaction:
		return c.loanTransactions
	case FamilyInvestorTransaction:
		return c.investorTransactions
	case FamilyInterestEntry:
		return c.interestEntries
	case FamilyExpense:
		return c.expenses
	default:
		return nil
	}
}

// Claim marks one ledger record as assigned.
func (c *Claims) Claim(ref RecordRef) {
	if set := c.familySet(ref.Family); set != nil {
		set[ref.ID] = struct{}{}
	}
}

// Claimed reports whether a ledger record is already assigned.
func (c *Claims) Claimed(ref RecordRef) bool {
	set := c.familySet(ref.Family)
	if set == nil {
		return false
	}
	_, ok := set[ref.ID]
	return ok
}

// ClaimEntry marks a bank entry as consumed by a grouped suggestion.
func (c *Claims) ClaimEntry(entryID string) {
	c.entries[entryID] = struct{}{}
}

// EntryClaimed reports whether a bank entry was consumed by an earlier
// grouped suggestion in this batch.
func (c *Claims) EntryClaimed(entryID string) bool {
	_, ok := c.entries[entryID]
	return ok
}

// ClaimCandidate marks everything a candidate references: its ledger records
// and, for grouped modes, its companion bank entries.
func (c *Claims) ClaimCandidate(cand *Candidate) {
	for _, ref := range cand.RecordRefs() {
		c.Claim(ref)
	}
	for _, e := range cand.GroupedEntries {
		c.ClaimEntry(e.ID)
	}
}

// Blocks reports whether any record or entry the candidate references is
// already claimed.
func (c *Claims) Blocks(cand *Candidate) bool {
	for _, ref := range cand.RecordRefs() {
		if c.Claimed(ref) {
			return true
		}
	}
	for _, e := range cand.GroupedEntries {
		if c.EntryClaimed(e.ID) {
			return true
		}
	}
	return false
}

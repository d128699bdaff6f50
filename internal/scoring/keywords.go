package scoring

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// stopwords are tokens too common in bank descriptions to carry meaning.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "from": {}, "with": {}, "to": {}, "of": {},
	"payment": {}, "paid": {}, "pay": {}, "transfer": {}, "trf": {}, "txn": {},
	"ref": {}, "reference": {}, "via": {}, "per": {}, "inv": {}, "invoice": {},
	"deposit": {}, "withdrawal": {}, "debit": {}, "credit": {}, "bank": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "may": {}, "jun": {},
	"jul": {}, "aug": {}, "sep": {}, "oct": {}, "nov": {}, "dec": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "june": {},
	"july": {}, "august": {}, "september": {}, "october": {}, "november": {},
	"december": {},
}

// expenseKeywords is the fallback dictionary of words that flag a debit as a
// likely business expense when no ledger candidate exists.
var expenseKeywords = []string{
	"electricity", "water", "gas", "rent", "utilities", "utility", "insurance",
	"fuel", "petrol", "diesel", "salary", "salaries", "wages", "payroll",
	"internet", "phone", "telephone", "mobile", "maintenance", "repair",
	"repairs", "office", "supplies", "stationery", "tax", "vat", "levy",
	"subscription", "software", "hosting", "license", "cleaning", "security",
	"legal", "accounting", "audit", "bill", "fee", "fees", "rates",
}

// genericFinanceWords are terms so common in lending that an investor name
// composed entirely of them cannot be matched by name alone.
var genericFinanceWords = map[string]struct{}{
	"loan": {}, "loans": {}, "lending": {}, "fund": {}, "funds": {},
	"funding": {}, "capital": {}, "invest": {}, "investment": {},
	"investments": {}, "investor": {}, "investors": {}, "finance": {},
	"financial": {}, "interest": {}, "credit": {}, "holdings": {},
	"group": {}, "partners": {}, "ventures": {}, "trust": {}, "equity": {},
	"asset": {}, "assets": {}, "money": {}, "payment": {}, "payments": {},
	"ltd": {}, "llc": {}, "inc": {}, "plc": {}, "limited": {}, "company": {},
	"the": {}, "and": {},
}

// Tokenize lowercases a string and splits it on any non-alphanumeric runs.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ExtractKeywords tokenizes free text and keeps the tokens that can identify
// a vendor or counterparty: at least three characters, not a stopword, not a
// bare number.
func ExtractKeywords(s string) []string {
	var keywords []string
	for _, tok := range Tokenize(s) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// LevenshteinSimilarity returns 1 minus the normalized edit distance between
// two strings, in [0,1]. Empty inputs score zero.
func LevenshteinSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	distance := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(distance)/float64(longest)
}

// KeywordOverlap scores how well keyword list a is covered by keyword list b.
// Each keyword in a earns tiered credit against b: exact 1.0, substring 0.7,
// edit similarity of at least 0.75 earns 0.5. The result is the average over
// a's keywords, in [0,1].
func KeywordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var total float64
	for _, ka := range a {
		best := 0.0
		for _, kb := range b {
			switch {
			case ka == kb:
				best = 1.0
			case best < 0.7 && (containsToken(ka, kb) || containsToken(kb, ka)):
				best = 0.7
			case best < 0.5 && LevenshteinSimilarity(ka, kb) >= 0.75:
				best = 0.5
			}
			if best == 1.0 {
				break
			}
		}
		total += best
	}
	return total / float64(len(a))
}

// DescriptionsRelated reports whether two bank-entry descriptions appear to
// come from the same payer or payee, based on keyword overlap in either
// direction.
func DescriptionsRelated(a, b string) bool {
	ka, kb := ExtractKeywords(a), ExtractKeywords(b)
	if len(ka) == 0 || len(kb) == 0 {
		return false
	}
	return KeywordOverlap(ka, kb) >= 0.5 || KeywordOverlap(kb, ka) >= 0.5
}

// GroupRelatedDescriptions reports whether every pair of descriptions in a
// candidate group is related. Used to reject subset-sum groups that are mere
// numeric coincidences.
func GroupRelatedDescriptions(descriptions []string) bool {
	if len(descriptions) < 2 {
		return true
	}
	for i := 0; i < len(descriptions); i++ {
		for j := i + 1; j < len(descriptions); j++ {
			if !DescriptionsRelated(descriptions[i], descriptions[j]) {
				return false
			}
		}
	}
	return true
}

// ExpenseKeyword returns the first expense-dictionary word found in the
// description, if any.
func ExpenseKeyword(description string) (string, bool) {
	tokens := Tokenize(description)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	for _, kw := range expenseKeywords {
		if _, ok := set[kw]; ok {
			return kw, true
		}
	}
	return "", false
}

// IsGenericName reports whether a counterparty name consists entirely of
// generic financial vocabulary ("Capital Loan Fund" and the like). Such names
// are excluded from name-only matching because they collide with ordinary
// banking language.
func IsGenericName(name string) bool {
	tokens := Tokenize(name)
	if len(tokens) == 0 {
		return true
	}
	for _, t := range tokens {
		if len(t) < 2 {
			continue
		}
		if _, ok := genericFinanceWords[t]; !ok {
			return false
		}
	}
	return true
}

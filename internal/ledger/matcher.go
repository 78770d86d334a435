package ledger

import (
	"strings"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxCandidates caps every matcher result.
const MaxCandidates = 5

// AmountTolerance absorbs rounding noise in amounts extracted from free text.
var AmountTolerance = decimal.RequireFromString("0.1")

var stopWords = map[string]bool{
	"de": true, "do": true, "da": true, "em": true, "no": true, "na": true,
	"com": true, "a": true, "o": true, "compra": true, "gasto": true, "despesa": true,
}

// Criteria describes an approximate lookup. Zero values match everything.
type Criteria struct {
	Date        string
	Amount      *decimal.Decimal
	Description string
}

// Matcher finds candidate records. Now resolves relative date hints such as
// "hoje" and "ontem".
type Matcher struct {
	Now func() time.Time
}

// NewMatcher returns a matcher using the wall clock in loc.
func NewMatcher(loc *time.Location) *Matcher {
	if loc == nil {
		loc = time.Local
	}
	return &Matcher{Now: func() time.Time { return time.Now().In(loc) }}
}

// FindForReimbursement returns unsettled expenses matching the date and
// description hints, most recent first.
func (m *Matcher) FindForReimbursement(records []domain.Record, date, description string) []domain.Record {
	return m.scan(records, Criteria{Date: date, Description: description}, func(r domain.Record) bool {
		return !r.IsIncome() && !r.FullyReimbursed()
	})
}

// FindByCriteria returns records of any kind matching c, most recent first.
func (m *Matcher) FindByCriteria(records []domain.Record, c Criteria) []domain.Record {
	return m.scan(records, c, nil)
}

func (m *Matcher) scan(records []domain.Record, c Criteria, eligible func(domain.Record) bool) []domain.Record {
	date := m.resolveDate(c.Date)
	terms := searchTerms(c.Description)

	var matches []domain.Record
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if eligible != nil && !eligible(r) {
			continue
		}
		if date != "" && !strings.Contains(r.DatePart(), date) {
			continue
		}
		if c.Amount != nil && !amountMatches(r.Amount, *c.Amount) {
			continue
		}
		if len(terms) > 0 && !descriptionMatches(r.Description, terms) {
			continue
		}
		matches = append(matches, r)
		if len(matches) >= MaxCandidates {
			break
		}
	}
	return matches
}

func (m *Matcher) resolveDate(hint string) string {
	hint = strings.TrimSpace(hint)
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	switch domain.Normalize(hint) {
	case "hoje", "today":
		return now().Format(domain.DateLayout)
	case "ontem", "yesterday":
		return now().AddDate(0, 0, -1).Format(domain.DateLayout)
	}
	return hint
}

func amountMatches(candidate, hint decimal.Decimal) bool {
	return candidate.Abs().Sub(hint.Abs()).Abs().LessThanOrEqual(AmountTolerance)
}

// searchTerms splits a hint into normalized tokens without stop words. A hint
// made only of stop words keeps all its tokens.
func searchTerms(hint string) []string {
	words := strings.Fields(domain.Normalize(hint))
	var terms []string
	for _, w := range words {
		if !stopWords[w] {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return words
	}
	return terms
}

// descriptionMatches accepts a description containing at least one term.
func descriptionMatches(description string, terms []string) bool {
	desc := domain.Normalize(description)
	for _, term := range terms {
		if strings.Contains(desc, term) {
			return true
		}
	}
	return false
}

package ledger

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

// Query selects records for Totalize. End is exclusive.
type Query struct {
	Start   *civil.Date
	End     *civil.Date
	Include []string
	Exclude []string
}

// Item is one record's contribution to a total.
type Item struct {
	Position      int
	Date          string
	Description   string
	Category      string
	PaymentMethod string
	Value         decimal.Decimal
}

// Totals is the result of Totalize.
type Totals struct {
	Spent   decimal.Decimal
	Gain    decimal.Decimal
	Balance decimal.Decimal
	Items   []Item
}

// Totalize sums net values of the records selected by q. Rows with an
// unparsable date are skipped, as are fully reimbursed expenses.
func Totalize(records []domain.Record, q Query) Totals {
	t := Totals{Spent: decimal.Zero, Gain: decimal.Zero, Balance: decimal.Zero}
	if q.Start != nil && q.End != nil && !q.Start.Before(*q.End) {
		return t
	}

	include := methodSet(q.Include)
	exclude := methodSet(q.Exclude)

	for _, r := range records {
		day, err := r.Day()
		if err != nil {
			continue
		}
		if q.Start != nil && day.Before(*q.Start) {
			continue
		}
		if q.End != nil && !day.Before(*q.End) {
			continue
		}
		method := domain.Normalize(r.PaymentMethod)
		if len(include) > 0 && !include[method] {
			continue
		}
		if exclude[method] {
			continue
		}

		net := r.NetValue()
		switch {
		case net.IsNegative():
			t.Spent = t.Spent.Add(net.Abs())
		case net.IsPositive():
			t.Gain = t.Gain.Add(net)
		default:
			continue
		}
		t.Items = append(t.Items, Item{
			Position:      r.Position,
			Date:          r.Date,
			Description:   r.Description,
			Category:      r.Category,
			PaymentMethod: r.PaymentMethod,
			Value:         net,
		})
	}
	t.Balance = t.Gain.Sub(t.Spent)
	return t
}

// TopExpenses returns up to n expense items, largest first.
func (t Totals) TopExpenses(n int) []Item {
	return top(t.Items, n, func(v decimal.Decimal) bool { return v.IsNegative() })
}

// TopGains returns up to n income items, largest first.
func (t Totals) TopGains(n int) []Item {
	return top(t.Items, n, func(v decimal.Decimal) bool { return v.IsPositive() })
}

func top(items []Item, n int, keep func(decimal.Decimal) bool) []Item {
	var out []Item
	for _, it := range items {
		if keep(it.Value) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.Abs().GreaterThan(out[j].Value.Abs())
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func methodSet(methods []string) map[string]bool {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		if m == "" {
			continue
		}
		set[domain.Normalize(m)] = true
	}
	return set
}

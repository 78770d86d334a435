package ledger_test

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(date, amount, reimbursed, desc, method string) domain.Record {
	return domain.Record{
		Date:          date,
		Amount:        decimal.RequireFromString(amount),
		Reimbursed:    decimal.RequireFromString(reimbursed),
		Description:   desc,
		PaymentMethod: method,
	}
}

func day(y, m, d int) *civil.Date {
	return &civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotalize_NetValues(t *testing.T) {
	records := []domain.Record{
		rec("10/01/2026 10:00", "-100", "0", "Mercado", "Pix"),
		rec("10/01/2026 11:00", "-50", "20", "Jantar", "Crédito"),
		rec("10/01/2026 12:00", "1000", "0", "Salário", "Pix"),
	}

	got := ledger.Totalize(records, ledger.Query{Start: day(2026, 1, 10), End: day(2026, 1, 11)})

	assert.True(t, got.Spent.Equal(dec("130")), "spent %s", got.Spent)
	assert.True(t, got.Gain.Equal(dec("1000")), "gain %s", got.Gain)
	assert.True(t, got.Balance.Equal(dec("870")), "balance %s", got.Balance)
	assert.Len(t, got.Items, 3)
}

func TestTotalize_MethodFilters(t *testing.T) {
	records := []domain.Record{
		rec("10/01/2026", "-100", "0", "TV", "Crédito"),
		rec("10/01/2026", "-50", "0", "Feira", "Pix"),
	}

	tests := []struct {
		name  string
		query ledger.Query
		spent string
	}{
		{"include", ledger.Query{Include: []string{"Crédito"}}, "100"},
		{"exclude", ledger.Query{Exclude: []string{"Crédito"}}, "50"},
		{"case insensitive", ledger.Query{Include: []string{"crédito"}}, "100"},
		{"include and exclude", ledger.Query{Include: []string{"Pix", "Crédito"}, Exclude: []string{"pix"}}, "100"},
		{"no filter", ledger.Query{}, "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.Totalize(records, tt.query)
			assert.True(t, got.Spent.Equal(dec(tt.spent)), "spent %s", got.Spent)
		})
	}
}

func TestTotalize_EdgeCases(t *testing.T) {
	t.Run("empty ledger", func(t *testing.T) {
		got := ledger.Totalize(nil, ledger.Query{})
		assert.True(t, got.Spent.IsZero())
		assert.True(t, got.Gain.IsZero())
		assert.True(t, got.Balance.IsZero())
		assert.Empty(t, got.Items)
	})

	t.Run("fully reimbursed expense excluded", func(t *testing.T) {
		got := ledger.Totalize([]domain.Record{rec("10/01/2026", "-40", "40", "Uber", "Pix")}, ledger.Query{})
		assert.True(t, got.Spent.IsZero())
		assert.Empty(t, got.Items)
	})

	t.Run("malformed date skipped", func(t *testing.T) {
		got := ledger.Totalize([]domain.Record{
			rec("ontem", "-40", "0", "Uber", "Pix"),
			rec("11/01/2026", "-10", "0", "Café", "Pix"),
		}, ledger.Query{})
		assert.True(t, got.Spent.Equal(dec("10")))
	})

	t.Run("inverted range yields nothing", func(t *testing.T) {
		got := ledger.Totalize([]domain.Record{rec("10/01/2026", "-40", "0", "Uber", "Pix")},
			ledger.Query{Start: day(2026, 1, 11), End: day(2026, 1, 10)})
		assert.True(t, got.Spent.IsZero())
		assert.Empty(t, got.Items)
	})

	t.Run("end is exclusive", func(t *testing.T) {
		got := ledger.Totalize([]domain.Record{
			rec("10/01/2026", "-40", "0", "Uber", "Pix"),
			rec("11/01/2026", "-5", "0", "Bala", "Pix"),
		}, ledger.Query{Start: day(2026, 1, 10), End: day(2026, 1, 11)})
		assert.True(t, got.Spent.Equal(dec("40")))
	})
}

func TestTotals_Top(t *testing.T) {
	var records []domain.Record
	for _, a := range []string{"-5", "-70", "-20", "-90", "-1", "-60", "300", "50"} {
		records = append(records, rec("10/01/2026", a, "0", "x", "Pix"))
	}

	got := ledger.Totalize(records, ledger.Query{})

	top := got.TopExpenses(5)
	require.Len(t, top, 5)
	assert.True(t, top[0].Value.Equal(dec("-90")))
	assert.True(t, top[4].Value.Equal(dec("-5")))

	gains := got.TopGains(5)
	require.Len(t, gains, 2)
	assert.True(t, gains[0].Value.Equal(dec("300")))
}

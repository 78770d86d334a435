package domain

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFromRow(t *testing.T) {
	tests := []struct {
		name       string
		row        Row
		amount     string
		reimbursed string
		method     string
	}{
		{"full row", Row{"10/01/2026 12:30", "-50,00", "20,00", "Almoço", "Alimentação", "Pix"}, "-50", "20", "Pix"},
		{"dot decimals", Row{"10/01/2026", "-12.5", "0", "Café", "", ""}, "-12.5", "0", ""},
		{"short row padded", Row{"10/01/2026", "100"}, "100", "0", ""},
		{"unparsable amount reads zero", Row{"10/01/2026", "abc", "x"}, "0", "0", ""},
		{"thousands separator", Row{"10/01/2026", "-1.234,56"}, "-1234.56", "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecordFromRow(tt.row, 7)
			assert.True(t, rec.Amount.Equal(decimal.RequireFromString(tt.amount)), "amount %s", rec.Amount)
			assert.True(t, rec.Reimbursed.Equal(decimal.RequireFromString(tt.reimbursed)), "reimbursed %s", rec.Reimbursed)
			assert.Equal(t, tt.method, rec.PaymentMethod)
			assert.Equal(t, 7, rec.Position)
		})
	}
}

func TestRecordRow(t *testing.T) {
	rec := Record{
		Date:          "10/01/2026 12:30",
		Amount:        decimal.RequireFromString("-50"),
		Reimbursed:    decimal.RequireFromString("20.5"),
		Description:   "Almoço",
		Category:      "Alimentação",
		PaymentMethod: "Pix",
	}

	assert.Equal(t, Row{"10/01/2026 12:30", "-50,00", "20,50", "Almoço", "Alimentação", "Pix"}, rec.Row())
	assert.Equal(t, "10/01/2026", rec.DatePart())
}

func TestRecordNetValue(t *testing.T) {
	rec := Record{Amount: decimal.NewFromInt(-50), Reimbursed: decimal.NewFromInt(20)}
	assert.True(t, rec.NetValue().Equal(decimal.NewFromInt(-30)))
	assert.True(t, rec.IsExpense())
	assert.False(t, rec.IsIncome())
	assert.False(t, rec.FullyReimbursed())

	rec.Reimbursed = decimal.NewFromInt(50)
	assert.True(t, rec.FullyReimbursed())
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("05/02/2026 09:15")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2026, Month: 2, Day: 5}, d)

	d, err = ParseDay("5/2/2026")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2026, Month: 2, Day: 5}, d)

	_, err = ParseDay("2026-02-05")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDay("")
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.Equal(t, "05/02/2026", FormatDay(civil.Date{Year: 2026, Month: 2, Day: 5}))
}

func TestFormatBRL(t *testing.T) {
	tests := map[string]string{
		"0":        "R$ 0,00",
		"12.5":     "R$ 12,50",
		"1234.56":  "R$ 1.234,56",
		"-1000000": "-R$ 1.000.000,00",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)))
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12.5"},
		{"12,50", "12.5"},
		{"1.234,56", "1234.56"},
		{"1.500", "1500"},
		{"-1.500", "-1500"},
		{"12.000.000", "12000000"},
		{"1.5000", "1.5"},
		{"45.90", "45.9"},
		{"R$ 10", "10"},
		{"", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	_, err := ParseAmount("dez reais")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

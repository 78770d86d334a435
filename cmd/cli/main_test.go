package main

import (
	"bytes"
	"testing"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery("01/01/2026", "31/01/2026", "Pix, Crédito", " ,Débito")
	require.NoError(t, err)
	require.NotNil(t, q.Start)
	require.NotNil(t, q.End)
	assert.Equal(t, "2026-01-01", q.Start.String())
	// End is exclusive so the last day is included.
	assert.Equal(t, "2026-02-01", q.End.String())
	assert.Equal(t, []string{"Pix", "Crédito"}, q.Include)
	assert.Equal(t, []string{"Débito"}, q.Exclude)

	q, err = buildQuery("", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, q.Start)
	assert.Nil(t, q.End)
	assert.Empty(t, q.Include)

	_, err = buildQuery("2026-01-01", "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestPrintTotals(t *testing.T) {
	records := []domain.Record{
		{Position: 1, Date: "10/01/2026", Amount: decimal.RequireFromString("-100"), Reimbursed: decimal.Zero, Description: "Mercado"},
		{Position: 2, Date: "11/01/2026", Amount: decimal.RequireFromString("500"), Reimbursed: decimal.Zero, Description: "Freela"},
	}

	var buf bytes.Buffer
	printTotals(&buf, ledger.Totalize(records, ledger.Query{}))

	out := buf.String()
	assert.Contains(t, out, "Spent:   R$ 100,00")
	assert.Contains(t, out, "Gained:  R$ 500,00")
	assert.Contains(t, out, "Balance: R$ 400,00")
	assert.Contains(t, out, "Top expenses:")
	assert.Contains(t, out, "Mercado")
}

func TestPrintRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, nil)
	assert.Equal(t, "No records found.\n", buf.String())
}

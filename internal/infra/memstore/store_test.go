package memstore

import (
	"context"
	"testing"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	pos, err := s.Append(ctx, domain.Row{"01/01/2026", "-10,00"})
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = s.Append(ctx, domain.Row{"02/01/2026", "20,00", "0", "Freela", "Freela", "Pix"})
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], domain.NumColumns, "short rows are padded")

	rows[0][0] = "mutated"
	again, _ := s.ReadAll(ctx)
	assert.Equal(t, "01/01/2026", again[0][0], "ReadAll returns copies")
}

func TestStore_UpdateField(t *testing.T) {
	ctx := context.Background()
	s := NewFromRows([]domain.Row{{"01/01/2026", "-10,00", "0,00", "Café", "", ""}})

	require.NoError(t, s.UpdateField(ctx, 1, domain.FieldCategory, "Alimentação"))
	rows, _ := s.ReadAll(ctx)
	assert.Equal(t, "Alimentação", rows[0][domain.ColCategory])

	err := s.UpdateField(ctx, 2, domain.FieldCategory, "x")
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)

	err = s.UpdateField(ctx, 1, domain.Field("color"), "x")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestStore_RegisterCategory(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.RegisterCategory(ctx, domain.KindExpense, "Mercado")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.RegisterCategory(ctx, domain.KindExpense, "mercado")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.RegisterCategory(ctx, domain.KindIncome, "Mercado")
	require.NoError(t, err)
	assert.True(t, created, "sets are independent")

	expense, income, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mercado"}, expense)
	assert.Equal(t, []string{"Mercado"}, income)
}

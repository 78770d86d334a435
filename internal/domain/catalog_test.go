package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Café":         "cafe",
		"Açúcar":       "acucar",
		"Água mineral": "agua mineral",
		"cafe":         "cafe",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Normalize(in))
		})
	}
}

func TestCanonicalPaymentMethod(t *testing.T) {
	tests := map[string]string{
		"pix":           "Pix",
		"PIX":           "Pix",
		"credito":       "Crédito",
		"Crédito":       "Crédito",
		"débito":        "Débito",
		"caju":          "Caju",
		"vale refeição": "Vale Refeição",
		"":              "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, CanonicalPaymentMethod(in))
		})
	}
}

func TestCatalogAdd(t *testing.T) {
	c := NewCatalog([]string{"Mercado"}, []string{"Salário"}, []string{"Pix"})

	assert.False(t, c.Add(KindExpense, "mercado"), "existing tag is a no-op")
	assert.True(t, c.Add(KindExpense, "Academia"))
	assert.True(t, c.Add(KindIncome, "Reembolso"))
	assert.False(t, c.Add(KindIncome, "Reembolso"))

	assert.Equal(t, []string{"Mercado", "Academia"}, c.Expense)
	assert.Equal(t, []string{"Mercado", "Academia", "Salário", "Reembolso"}, c.Known())

	name, ok := c.Lookup("SALARIO")
	require.True(t, ok)
	assert.Equal(t, "Salário", name)
}

func TestCatalogPaymentMethod(t *testing.T) {
	c := NewCatalog(nil, nil, []string{"Pix", "Cartão Nubank"})
	assert.Equal(t, "Cartão Nubank", c.PaymentMethod("cartao nubank"))
	assert.Equal(t, "Crédito", c.PaymentMethod("credito"))
}

func TestParseField(t *testing.T) {
	tests := map[string]Field{
		"valor":            FieldAmount,
		"descricao":        FieldDescription,
		"Descrição":        FieldDescription,
		"tags":             FieldCategory,
		"metodo_pagamento": FieldPaymentMethod,
		"payment_method":   FieldPaymentMethod,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := ParseField(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := ParseField("cor")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDraftMissingField(t *testing.T) {
	d := Draft{Amount: decimal.NewFromInt(-10)}

	f, missing := d.MissingField()
	require.True(t, missing)
	assert.Equal(t, FieldDescription, f)

	d.Set(FieldDescription, "Pão")
	f, _ = d.MissingField()
	assert.Equal(t, FieldCategory, f)

	d.Set(FieldCategory, "Mercado")
	f, _ = d.MissingField()
	assert.Equal(t, FieldPaymentMethod, f)

	d.Set(FieldPaymentMethod, "Pix")
	_, missing = d.MissingField()
	assert.False(t, missing)
	assert.Equal(t, KindExpense, d.Kind())
}

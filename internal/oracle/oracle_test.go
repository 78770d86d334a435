package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBackend implements Backend for testing.
type mockBackend struct {
	GenerateFunc func(ctx context.Context, model, prompt string) (string, error)
	calls        []string
}

func (m *mockBackend) Generate(ctx context.Context, model, prompt string) (string, error) {
	m.calls = append(m.calls, model)
	return m.GenerateFunc(ctx, model, prompt)
}

func TestClassify_FallsBackOnQuota(t *testing.T) {
	backend := &mockBackend{GenerateFunc: func(ctx context.Context, model, prompt string) (string, error) {
		if model != "c" {
			return "", fmt.Errorf("generate content: %w: 429", ErrQuotaExceeded)
		}
		return `{"intent":"tags","action":"list"}`, nil
	}}
	o := New(backend, []string{"a", "b", "c", "d"})

	got, err := o.Classify(context.Background(), "quais tags?", Hints{})
	require.NoError(t, err)

	assert.Equal(t, TagAction{Action: TagList}, got)
	assert.Equal(t, []string{"a", "b", "c"}, backend.calls)
}

func TestClassify_StopsOnOtherErrors(t *testing.T) {
	boom := errors.New("permission denied")
	backend := &mockBackend{GenerateFunc: func(ctx context.Context, model, prompt string) (string, error) {
		return "", boom
	}}
	o := New(backend, []string{"a", "b"})

	_, err := o.Classify(context.Background(), "oi", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, backend.calls)
}

func TestClassify_Exhausted(t *testing.T) {
	backend := &mockBackend{GenerateFunc: func(ctx context.Context, model, prompt string) (string, error) {
		return "", ErrQuotaExceeded
	}}
	o := New(backend, []string{"a", "b"})

	_, err := o.Classify(context.Background(), "oi", Hints{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, []string{"a", "b"}, backend.calls)
}

func TestClassify_UnparsableIsOther(t *testing.T) {
	backend := &mockBackend{GenerateFunc: func(ctx context.Context, model, prompt string) (string, error) {
		return "desculpe, não entendi", nil
	}}
	o := New(backend, []string{"a", "b"})

	got, err := o.Classify(context.Background(), "oi", Hints{})
	require.NoError(t, err)
	assert.Equal(t, Other{}, got)
	assert.Equal(t, []string{"a"}, backend.calls)
}

func TestBuildPrompt(t *testing.T) {
	catalog := domain.NewCatalog([]string{"Mercado"}, []string{"Salário"}, []string{"Pix"})
	last := &domain.Record{Date: "15/01/2026 09:30", Amount: decimal.NewFromInt(-30), Description: "Farmácia"}

	p := BuildPrompt("era 45", Hints{
		Today:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Catalog:   catalog,
		LastSaved: last,
	})

	assert.Contains(t, p, "Hoje é 15/01/2026 (quinta-feira)")
	assert.Contains(t, p, "Categorias de gasto: Mercado")
	assert.Contains(t, p, "Categorias de ganho: Salário")
	assert.Contains(t, p, `"intent":"edit_last"`)
	assert.Contains(t, p, `descrição "Farmácia"`)
	assert.Contains(t, p, `Mensagem do usuário: "era 45"`)

	p = BuildPrompt("oi", Hints{Catalog: catalog})
	assert.NotContains(t, p, "edit_last")
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(errors.New("Error 429, Message: Resource has been exhausted")))
	assert.True(t, isQuotaError(errors.New("You exceeded your current quota")))
	assert.True(t, isQuotaError(errors.New("Status: RESOURCE_EXHAUSTED")))
	assert.False(t, isQuotaError(errors.New("Error 403, Message: permission denied")))
}

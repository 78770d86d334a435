package inmemory

import (
	"context"
	"testing"

	"github.com/dvloznov/telegrana/internal/conversation"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UnknownSessionIsIdle(t *testing.T) {
	s := NewStore()
	state, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, conversation.Idle{}, state)
}

func TestStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	want := conversation.AwaitingMissingField{
		Draft: domain.Draft{Amount: decimal.NewFromInt(-10), Description: "Pão"},
		Field: domain.FieldCategory,
	}
	require.NoError(t, s.Save(ctx, "42", want))

	got, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Save(ctx, "42", conversation.Idle{}))
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Save(ctx, "42", want))
	require.NoError(t, s.Delete(ctx, "42"))
	got, _ = s.Get(ctx, "42")
	assert.Equal(t, conversation.Idle{}, got)
}

func TestStore_CopiesCandidates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	candidates := []domain.Record{{Position: 1}, {Position: 2}}
	require.NoError(t, s.Save(ctx, "42", conversation.AwaitingDisambiguation{Candidates: candidates}))
	candidates[0].Position = 99

	got, _ := s.Get(ctx, "42")
	d := got.(conversation.AwaitingDisambiguation)
	assert.Equal(t, 1, d.Candidates[0].Position)

	d.Candidates[1].Position = 77
	again, _ := s.Get(ctx, "42")
	assert.Equal(t, 2, again.(conversation.AwaitingDisambiguation).Candidates[1].Position)
}

func TestStore_Validation(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Save(context.Background(), "", conversation.Idle{}))
	assert.Error(t, s.Save(context.Background(), "42", nil))
}

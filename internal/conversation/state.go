// Package conversation drives the per-session dialogue: it routes classified
// messages to the ledger and keeps track of multi-turn flows.
package conversation

import (
	"context"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/shopspring/decimal"
)

// StateKind names a conversation state.
type StateKind string

const (
	KindIdle                   StateKind = "idle"
	KindAwaitingMissingField   StateKind = "awaiting_missing_field"
	KindAwaitingDisambiguation StateKind = "awaiting_disambiguation"
	KindAwaitingPostSaveEdit   StateKind = "awaiting_post_save_edit"
)

// State is one of Idle, AwaitingMissingField, AwaitingDisambiguation or
// AwaitingPostSaveEdit.
type State interface {
	Kind() StateKind
	sealed()
}

// Idle waits for a fresh message.
type Idle struct{}

// AwaitingMissingField holds a draft until Field is answered.
type AwaitingMissingField struct {
	Draft domain.Draft
	Field domain.Field
}

// AwaitingDisambiguation waits for the user to pick one of Candidates to
// receive a reimbursement of Amount.
type AwaitingDisambiguation struct {
	Candidates []domain.Record
	Amount     decimal.Decimal
}

// AwaitingPostSaveEdit allows the next message to correct the record just
// written at Position.
type AwaitingPostSaveEdit struct {
	Position int
	Saved    domain.Record
}

func (Idle) Kind() StateKind                   { return KindIdle }
func (AwaitingMissingField) Kind() StateKind   { return KindAwaitingMissingField }
func (AwaitingDisambiguation) Kind() StateKind { return KindAwaitingDisambiguation }
func (AwaitingPostSaveEdit) Kind() StateKind   { return KindAwaitingPostSaveEdit }

func (Idle) sealed()                   {}
func (AwaitingMissingField) sealed()   {}
func (AwaitingDisambiguation) sealed() {}
func (AwaitingPostSaveEdit) sealed()   {}

// StateStore persists one state per session. Get returns Idle for unknown
// sessions.
type StateStore interface {
	Get(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, state State) error
	Delete(ctx context.Context, sessionID string) error
}

// Clone returns a copy of s that shares no slices with it.
func Clone(s State) State {
	if d, ok := s.(AwaitingDisambiguation); ok {
		d.Candidates = append([]domain.Record(nil), d.Candidates...)
		return d
	}
	return s
}

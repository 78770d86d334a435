package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/dvloznov/telegrana/internal/logger"
	"github.com/dvloznov/telegrana/internal/oracle"
	"github.com/google/uuid"
)

var cancelWords = map[string]bool{
	"cancelar": true,
	"cancela":  true,
	"cancel":   true,
	"/cancel":  true,
}

// outcome is the result of one turn. A nil next keeps the stored state.
type outcome struct {
	reply string
	next  State
}

func failed() outcome { return outcome{reply: failureReply} }

// Engine handles one message at a time for every session.
type Engine struct {
	mu     sync.Mutex
	ledger *ledger.Service
	oracle oracle.Classifier
	states StateStore
}

// NewEngine wires the conversation engine.
func NewEngine(svc *ledger.Service, classifier oracle.Classifier, states StateStore) *Engine {
	return &Engine{
		ledger: svc,
		oracle: classifier,
		states: states,
	}
}

// Reset returns the session to Idle and replies with the usage text.
func (e *Engine) Reset(ctx context.Context, sessionID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.states.Delete(ctx, sessionID); err != nil {
		l := logger.FromContext(ctx)
		l.Error().Err(err).Str("session_id", sessionID).Msg("Failed to reset session")
	}
	return Usage
}

// State returns the current state of a session.
func (e *Engine) State(ctx context.Context, sessionID string) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.states.Get(ctx, sessionID)
}

// Handle processes one message and returns the reply. The session state is
// only replaced after every store and oracle call of the turn succeeded.
func (e *Engine) Handle(ctx context.Context, sessionID, text string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := logger.WithSession(logger.FromContext(ctx), sessionID, uuid.NewString())
	ctx = logger.WithContext(ctx, log)

	text = strings.TrimSpace(text)
	if text == "" {
		return emptyReply
	}

	current, err := e.states.Get(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session state")
		return failureReply
	}

	var out outcome
	switch s := current.(type) {
	case Idle:
		out = e.handleIdle(ctx, text)
	case AwaitingMissingField:
		out = e.handleMissingField(ctx, s, text)
	case AwaitingDisambiguation:
		out = e.handleDisambiguation(ctx, s, text)
	case AwaitingPostSaveEdit:
		out = e.handlePostSave(ctx, s, text)
	default:
		log.Error().Str("state", fmt.Sprintf("%T", current)).Msg("Unknown session state, resetting")
		out = e.handleIdle(ctx, text)
		if out.next == nil {
			out.next = Idle{}
		}
	}

	next := current
	if out.next != nil {
		if err := e.states.Save(ctx, sessionID, out.next); err != nil {
			log.Error().Err(err).Msg("Failed to save session state")
			return failureReply
		}
		next = out.next
	}

	log.Info().
		Str("state_before", string(current.Kind())).
		Str("state_after", string(next.Kind())).
		Msg("Message handled")

	return out.reply
}

func (e *Engine) classify(ctx context.Context, text string, lastSaved *domain.Record) (oracle.Intent, error) {
	intent, err := e.oracle.Classify(ctx, text, oracle.Hints{
		Today:     e.ledger.Now(),
		Catalog:   e.ledger.Catalog(),
		LastSaved: lastSaved,
	})
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info().Str("intent", string(intent.Kind())).Msg("Intent classified")
	return intent, nil
}

func (e *Engine) handleIdle(ctx context.Context, text string) outcome {
	intent, err := e.classify(ctx, text, nil)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Intent classification failed")
		return failed()
	}
	return e.route(ctx, intent)
}

// route executes a classified intent as a fresh Idle message.
func (e *Engine) route(ctx context.Context, intent oracle.Intent) outcome {
	switch i := intent.(type) {
	case oracle.NewTransaction:
		return e.startTransaction(ctx, i)
	case oracle.Reimbursement:
		return e.reimburse(ctx, i)
	case oracle.Query:
		return e.query(ctx, i)
	case oracle.PastEdit:
		return e.pastEdit(ctx, i)
	case oracle.TagAction:
		return e.tags(ctx, i)
	case oracle.EditLast:
		return outcome{reply: formatHelp(""), next: Idle{}}
	case oracle.Other:
		return outcome{reply: formatHelp(i.Reason), next: Idle{}}
	}
	return outcome{reply: formatHelp(""), next: Idle{}}
}

func (e *Engine) startTransaction(ctx context.Context, n oracle.NewTransaction) outcome {
	catalog := e.ledger.Catalog()
	draft := n.Draft()

	if draft.Category != "" {
		if known, ok := catalog.Lookup(draft.Category); ok {
			draft.Category = known
		} else {
			draft.Category = ""
		}
	}
	draft.PaymentMethod = catalog.PaymentMethod(draft.PaymentMethod)

	if field, missing := draft.MissingField(); missing {
		return outcome{
			reply: formatPrompt(field, draft, catalog),
			next:  AwaitingMissingField{Draft: draft, Field: field},
		}
	}
	return e.commit(ctx, draft)
}

func (e *Engine) commit(ctx context.Context, draft domain.Draft) outcome {
	rec, err := e.ledger.CreateTransaction(ctx, draft)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			return outcome{reply: fmt.Sprintf("⚠️ Data inválida: %q. Use dd/mm/aaaa.", draft.Date), next: Idle{}}
		}
		if errors.Is(err, domain.ErrInvalidAmount) {
			return outcome{reply: "⚠️ O valor precisa ser diferente de zero.", next: Idle{}}
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to save transaction")
		return failed()
	}
	return outcome{
		reply: formatSaved(rec),
		next:  AwaitingPostSaveEdit{Position: rec.Position, Saved: rec},
	}
}

func (e *Engine) handleMissingField(ctx context.Context, s AwaitingMissingField, text string) outcome {
	if cancelWords[domain.Normalize(text)] {
		return outcome{reply: cancelledReply, next: Idle{}}
	}

	catalog := e.ledger.Catalog()
	draft := s.Draft
	value := text

	switch s.Field {
	case domain.FieldCategory:
		if known, ok := catalog.Lookup(value); ok {
			value = known
		} else {
			value = domain.Title(value)
			if _, err := e.ledger.RegisterCategory(ctx, draft.Kind(), value); err != nil {
				log := logger.FromContext(ctx)
				log.Error().Err(err).Str("category", value).Msg("Failed to register category")
				return failed()
			}
		}
	case domain.FieldPaymentMethod:
		value = catalog.PaymentMethod(value)
	}
	draft.Set(s.Field, value)

	if field, missing := draft.MissingField(); missing {
		return outcome{
			reply: formatPrompt(field, draft, catalog),
			next:  AwaitingMissingField{Draft: draft, Field: field},
		}
	}
	return e.commit(ctx, draft)
}

func (e *Engine) handleDisambiguation(ctx context.Context, s AwaitingDisambiguation, text string) outcome {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ".")))
	if err != nil || n < 1 || n > len(s.Candidates) {
		return outcome{reply: fmt.Sprintf("🔢 Responda com um número de 1 a %d.\n%s",
			len(s.Candidates), formatCandidates(s.Candidates))}
	}

	rec, err := e.ledger.Record(ctx, s.Candidates[n-1].Position)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("position", s.Candidates[n-1].Position).Msg("Failed to reload candidate")
		return failed()
	}
	return e.settle(ctx, rec, s)
}

func (e *Engine) settle(ctx context.Context, rec domain.Record, s AwaitingDisambiguation) outcome {
	settlement, err := e.ledger.ProcessReimbursement(ctx, rec, s.Amount)
	if err != nil {
		if errors.Is(err, ledger.ErrNotExpense) || errors.Is(err, domain.ErrInvalidAmount) {
			return outcome{reply: "⚠️ Esse lançamento não pode receber reembolso.", next: Idle{}}
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("position", rec.Position).Msg("Failed to apply reimbursement")
		return failed()
	}
	return outcome{reply: formatSettlement(settlement), next: Idle{}}
}

func (e *Engine) handlePostSave(ctx context.Context, s AwaitingPostSaveEdit, text string) outcome {
	saved := s.Saved
	intent, err := e.classify(ctx, text, &saved)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Intent classification failed")
		return failed()
	}

	edit, ok := intent.(oracle.EditLast)
	if !ok {
		return e.route(ctx, intent)
	}

	field, err := domain.ParseField(edit.Field)
	if err != nil {
		return outcome{reply: fmt.Sprintf("⚠️ Não sei editar o campo %q. Posso mudar valor, descrição, tag ou método.", edit.Field)}
	}

	rec, err := e.ledger.Record(ctx, s.Position)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("position", s.Position).Msg("Failed to reload saved record")
		return failed()
	}

	updated, err := e.ledger.EditField(ctx, rec, field, edit.Value)
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return outcome{reply: fmt.Sprintf("⚠️ Valor inválido: %q.", edit.Value)}
	case errors.Is(err, domain.ErrUnknownField):
		return outcome{reply: fmt.Sprintf("⚠️ Não sei editar o campo %q. Posso mudar valor, descrição, tag ou método.", edit.Field)}
	case err != nil:
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("position", s.Position).Msg("Failed to edit saved record")
		return failed()
	}
	return outcome{reply: formatEdited(updated, []domain.Field{field}), next: Idle{}}
}

func (e *Engine) reimburse(ctx context.Context, r oracle.Reimbursement) outcome {
	candidates, err := e.ledger.FindForReimbursement(ctx, r.PurchaseDate, r.PurchaseDescription)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to search reimbursement candidates")
		return failed()
	}

	switch len(candidates) {
	case 0:
		return outcome{
			reply: fmt.Sprintf("🔍 Não encontrei nenhuma compra em aberto para \"%s\". Tente informar a data (dd/mm) ou outra descrição.", r.PurchaseDescription),
			next:  Idle{},
		}
	case 1:
		return e.settle(ctx, candidates[0], AwaitingDisambiguation{Candidates: candidates, Amount: r.Amount})
	}

	next := AwaitingDisambiguation{Candidates: candidates, Amount: r.Amount}
	return outcome{reply: formatDisambiguation(next), next: next}
}

func (e *Engine) query(ctx context.Context, q oracle.Query) outcome {
	totals, err := e.ledger.Totals(ctx, q.Ledger())
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to compute totals")
		return failed()
	}
	return outcome{reply: formatTotals(q, totals), next: Idle{}}
}

func (e *Engine) pastEdit(ctx context.Context, p oracle.PastEdit) outcome {
	if p.Search.Date == "" && p.Search.Amount == nil && p.Search.Description == "" {
		return outcome{reply: "🔍 Para editar, me diga a data, o valor ou a descrição do lançamento.", next: Idle{}}
	}

	matches, err := e.ledger.FindByCriteria(ctx, p.Search)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to search records to edit")
		return failed()
	}

	switch len(matches) {
	case 0:
		return outcome{reply: "🔍 Não encontrei esse lançamento.", next: Idle{}}
	case 1:
	default:
		return outcome{
			reply: fmt.Sprintf("🔍 Encontrei %d lançamentos parecidos:\n%s\n\nSeja mais específico (data, valor ou descrição).",
				len(matches), formatCandidates(matches)),
			next: Idle{},
		}
	}

	updated, err := e.ledger.ApplyUpdates(ctx, matches[0], p.Updates)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			return outcome{reply: "⚠️ O novo valor precisa ser diferente de zero.", next: Idle{}}
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Int("position", matches[0].Position).Msg("Failed to apply past edit")
		return failed()
	}
	return outcome{reply: formatEdited(updated, updatedFields(p.Updates)), next: Idle{}}
}

func (e *Engine) tags(ctx context.Context, t oracle.TagAction) outcome {
	catalog := e.ledger.Catalog()
	if t.Action == oracle.TagList {
		return outcome{reply: formatTags(catalog), next: Idle{}}
	}

	kind := t.Set
	if kind == "" {
		kind = domain.KindExpense
	}
	name := domain.Title(t.Name)
	created, err := e.ledger.RegisterCategory(ctx, kind, name)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("category", name).Msg("Failed to create category")
		return failed()
	}

	set := "gasto"
	if kind == domain.KindIncome {
		set = "ganho"
	}
	if !created {
		return outcome{reply: fmt.Sprintf("ℹ️ A tag \"%s\" já existia (%s).", name, set), next: Idle{}}
	}
	return outcome{reply: fmt.Sprintf("✅ Tag \"%s\" criada (%s).", name, set), next: Idle{}}
}

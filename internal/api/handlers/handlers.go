package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/telegrana/internal/api/middleware"
	"github.com/dvloznov/telegrana/internal/conversation"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Conversation is implemented by conversation.Engine.
type Conversation interface {
	Handle(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) string
	State(ctx context.Context, sessionID string) (conversation.State, error)
}

// Ledger is the read side of ledger.Service.
type Ledger interface {
	Records(ctx context.Context) ([]domain.Record, error)
	Catalog() *domain.Catalog
}

// MessagesHandler exposes the conversation over HTTP.
type MessagesHandler struct {
	conv Conversation
	log  zerolog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(conv Conversation, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{
		conv: conv,
		log:  log,
	}
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type messageResponse struct {
	Reply string `json:"reply"`
	State string `json:"state"`
}

// PostMessage handles POST /api/messages
func (h *MessagesHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctx := r.Context()
	reply := h.conv.Handle(ctx, req.SessionID, req.Text)
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Reply: reply, State: h.stateName(ctx, req.SessionID)})
}

// ResetSession handles POST /api/sessions/{id}/reset
func (h *MessagesHandler) ResetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	ctx := r.Context()
	reply := h.conv.Reset(ctx, sessionID)
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Reply: reply, State: h.stateName(ctx, sessionID)})
}

func (h *MessagesHandler) stateName(ctx context.Context, sessionID string) string {
	state, err := h.conv.State(ctx, sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to read session state")
		return ""
	}
	return string(state.Kind())
}

// RecordsHandler handles ledger read endpoints.
type RecordsHandler struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(ledger Ledger, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{
		ledger: ledger,
		log:    log,
	}
}

type recordResponse struct {
	Position      int             `json:"position"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Reimbursed    decimal.Decimal `json:"reimbursed"`
	Description   string          `json:"description"`
	Tags          string          `json:"tags"`
	PaymentMethod string          `json:"payment_method"`
}

// ListRecords handles GET /api/records. start_date and end_date
// (YYYY-MM-DD, inclusive) are optional.
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	var start, end *civil.Date
	if s := query.Get("start_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
		start = &d
	}
	if s := query.Get("end_date"); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		end = &d
	}

	records, err := h.ledger.Records(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read records")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read records")
		return
	}

	// Return array directly for frontend compatibility
	out := []recordResponse{}
	for _, rec := range records {
		if start != nil || end != nil {
			day, err := rec.Day()
			if err != nil {
				continue
			}
			if start != nil && day.Before(*start) {
				continue
			}
			if end != nil && day.After(*end) {
				continue
			}
		}
		out = append(out, recordResponse{
			Position:      rec.Position,
			Date:          rec.Date,
			Amount:        rec.Amount,
			Reimbursed:    rec.Reimbursed,
			Description:   rec.Description,
			Tags:          rec.Category,
			PaymentMethod: rec.PaymentMethod,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// ListCategories handles GET /api/categories
func (h *RecordsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	catalog := h.ledger.Catalog()
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"expense":         orEmpty(catalog.Expense),
		"income":          orEmpty(catalog.Income),
		"payment_methods": orEmpty(catalog.PaymentMethods),
	})
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

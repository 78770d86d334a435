package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/telegrana/internal/api/handlers"
	"github.com/dvloznov/telegrana/internal/conversation"
	"github.com/dvloznov/telegrana/internal/domain"
	"github.com/dvloznov/telegrana/internal/infra/memstore"
	"github.com/dvloznov/telegrana/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConversation struct {
	HandleFunc func(ctx context.Context, sessionID, text string) string
	ResetFunc  func(ctx context.Context, sessionID string) string
	StateFunc  func(ctx context.Context, sessionID string) (conversation.State, error)
}

func (m *mockConversation) Handle(ctx context.Context, sessionID, text string) string {
	return m.HandleFunc(ctx, sessionID, text)
}

func (m *mockConversation) Reset(ctx context.Context, sessionID string) string {
	return m.ResetFunc(ctx, sessionID)
}

func (m *mockConversation) State(ctx context.Context, sessionID string) (conversation.State, error) {
	if m.StateFunc == nil {
		return conversation.Idle{}, nil
	}
	return m.StateFunc(ctx, sessionID)
}

func newRouter(t *testing.T, conv *mockConversation, apiKey string) http.Handler {
	t.Helper()
	store := memstore.NewFromRows([]domain.Row{
		{"05/01/2026", "-100,00", "0,00", "Feira", "Mercado", "Pix"},
		{"10/01/2026 12:00", "1000,00", "0,00", "Salário", "Salário", "Pix"},
	})
	svc := ledger.NewService(store, domain.NewCatalog([]string{"Mercado"}, []string{"Salário"}, []string{"Pix"}), time.UTC)
	require.NoError(t, svc.LoadCatalog(context.Background()))

	log := zerolog.Nop()
	return handlers.NewRouter(
		handlers.NewMessagesHandler(conv, log),
		handlers.NewRecordsHandler(svc, log),
		apiKey,
		log,
	)
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostMessage(t *testing.T) {
	conv := &mockConversation{
		HandleFunc: func(ctx context.Context, sessionID, text string) string {
			assert.Equal(t, "web-1", sessionID)
			return "reply to " + text
		},
		StateFunc: func(ctx context.Context, sessionID string) (conversation.State, error) {
			return conversation.AwaitingPostSaveEdit{Position: 1}, nil
		},
	}
	router := newRouter(t, conv, "")

	rec := do(router, http.MethodPost, "/api/messages", `{"session_id":"web-1","text":"gastei 10"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reply to gastei 10", body["reply"])
	assert.Equal(t, "awaiting_post_save_edit", body["state"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPostMessageValidation(t *testing.T) {
	router := newRouter(t, &mockConversation{}, "")

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"missing session", http.MethodPost, `{"text":"oi"}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, tt.method, "/api/messages", tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestStateErrorLeavesStateEmpty(t *testing.T) {
	conv := &mockConversation{
		HandleFunc: func(ctx context.Context, sessionID, text string) string { return "ok" },
		StateFunc: func(ctx context.Context, sessionID string) (conversation.State, error) {
			return nil, errors.New("down")
		},
	}
	router := newRouter(t, conv, "")

	rec := do(router, http.MethodPost, "/api/messages", `{"session_id":"s","text":"oi"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":""`)
}

func TestResetSession(t *testing.T) {
	var reset string
	conv := &mockConversation{ResetFunc: func(ctx context.Context, sessionID string) string {
		reset = sessionID
		return "usage"
	}}
	router := newRouter(t, conv, "")

	rec := do(router, http.MethodPost, "/api/sessions/chat-9/reset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chat-9", reset)
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)

	rec = do(router, http.MethodPost, "/api/sessions/chat-9/other", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth(t *testing.T) {
	conv := &mockConversation{HandleFunc: func(ctx context.Context, sessionID, text string) string { return "ok" }}
	router := newRouter(t, conv, "secret")

	rec := do(router, http.MethodPost, "/api/messages", `{"session_id":"s","text":"oi"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodPost, "/api/messages", `{"session_id":"s","text":"oi"}`, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListRecords(t *testing.T) {
	router := newRouter(t, &mockConversation{}, "")

	rec := do(router, http.MethodGet, "/api/records?start_date=2026-01-06", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Salário", records[0]["description"])
	assert.Equal(t, float64(2), records[0]["position"])

	rec = do(router, http.MethodGet, "/api/records", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 2)

	rec = do(router, http.MethodGet, "/api/records?end_date=05/01/2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCategories(t *testing.T) {
	router := newRouter(t, &mockConversation{}, "")

	rec := do(router, http.MethodGet, "/api/categories", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Mercado"}, body["expense"])
	assert.Equal(t, []string{"Pix"}, body["payment_methods"])
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/telegrana/internal/api/middleware"
	"github.com/rs/zerolog"
)

// NewRouter registers every endpoint and wraps the mux in the middleware
// chain.
func NewRouter(messages *MessagesHandler, records *RecordsHandler, apiKey string, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messages.PostMessage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		// /api/sessions/{id}/reset
		rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		sessionID, action, ok := strings.Cut(rest, "/")
		if !ok || sessionID == "" || action != "reset" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		messages.ResetSession(w, r, sessionID)
	})

	mux.HandleFunc("/api/records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			records.ListRecords(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			records.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", Health)

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.CORS(
					middleware.Auth(apiKey)(mux),
				),
			),
		),
	)
}

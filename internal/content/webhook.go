package content

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Webhook receives CMS change notifications and drops cached lists so the
// next page view sees the edit.
type Webhook struct {
	source Source
	token  string
}

func NewWebhook(source Source, token string) *Webhook {
	return &Webhook{source: source, token: token}
}

func (h *Webhook) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /hooks/content", h.handleContentChange)
}

func (h *Webhook) handleContentChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.token != "" {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			slog.WarnContext(ctx, "rejected content webhook", "remote", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var event struct {
		Event string `json:"event"`
		Model string `json:"model"`
	}
	// the payload is informational only
	_ = json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&event)

	h.source.Invalidate()
	slog.InfoContext(ctx, "content changed, cache invalidated", "event", event.Event, "model", event.Model)
	w.WriteHeader(http.StatusNoContent)
}

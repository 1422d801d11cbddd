package newsletter

import (
	"errors"
	"log/slog"
	"net/http"
)

const (
	subscribedRedirect = "/?subscribed=1#newsletter"
	invalidRedirect    = "/?newsletter=invalid#newsletter"
)

type Handler struct {
	storage *Storage
	mailer  Mailer
}

func NewHandler(storage *Storage, mailer Mailer) *Handler {
	return &Handler{storage: storage, mailer: mailer}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /newsletter", h.handleSubscribe)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sub, created, err := h.storage.Subscribe(ctx, r.PostForm.Get("email"))
	if errors.Is(err, ErrInvalidEmail) {
		http.Redirect(w, r, invalidRedirect, http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store subscriber", "error", err)
		http.Error(w, "could not subscribe right now", http.StatusInternalServerError)
		return
	}

	if created {
		slog.InfoContext(ctx, "new newsletter subscriber", "subscriber", sub.ID)
		if err := h.mailer.Welcome(ctx, *sub); err != nil {
			// the signup itself succeeded
			slog.ErrorContext(ctx, "failed to send welcome mail", "subscriber", sub.ID, "error", err)
		}
	}
	http.Redirect(w, r, subscribedRedirect, http.StatusSeeOther)
}

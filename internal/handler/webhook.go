package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/studiopass/internal/ledger"
)

type WebhookHandler struct {
	reconciler *ledger.Reconciler
	logger     *slog.Logger
}

func NewWebhookHandler(rc *ledger.Reconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: rc, logger: logger.With("component", "webhook_handler")}
}

// HandleStripeWebhook acknowledges every verified event. Store failures return
// 500 so Stripe redelivers.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "read body"})
		return
	}

	ack, err := h.reconciler.HandleEvent(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid signature"})
			return
		}
		h.logger.Error("webhook processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "webhook processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

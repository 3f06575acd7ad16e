package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"

	"github.com/dukerupert/studiopass/internal/ledger"
	"github.com/dukerupert/studiopass/internal/model"
)

type CheckoutHandler struct {
	checkout *ledger.CheckoutInitiator
	logger   *slog.Logger
}

func NewCheckoutHandler(c *ledger.CheckoutInitiator, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: c, logger: logger.With("component", "checkout_handler")}
}

type checkoutRequest struct {
	PackageType string  `json:"packageType"`
	PackageName string  `json:"packageName"`
	Price       float64 `json:"price"`
	Sessions    int     `json:"sessions"`
	UserID      string  `json:"userId"`
	UserEmail   string  `json:"userEmail"`
}

// Create starts a Stripe Checkout payment and returns its URL. Prices are
// given in euros.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 16384)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Requête invalide", Details: "invalid JSON"})
		return
	}

	kind, err := model.ParsePackageKind(req.PackageType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Type de forfait inconnu", Field: "packageType", Details: err.Error()})
		return
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Prix invalide", Field: "price"})
		return
	}

	res, err := h.checkout.StartCheckout(r.Context(), ledger.CheckoutRequest{
		OwnerID:       req.UserID,
		OwnerEmail:    req.UserEmail,
		Kind:          kind,
		Name:          req.PackageName,
		PriceCents:    int64(math.Round(req.Price * 100)),
		TotalSessions: req.Sessions,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Demande d'achat invalide", Field: ve.Field, Details: ve.Message})
	case errors.Is(err, ledger.ErrGateway):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Impossible de créer la session de paiement", Details: err.Error()})
	default:
		h.logger.Error("checkout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Erreur lors de l'enregistrement de l'achat"})
	}
}

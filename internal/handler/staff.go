package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/dukerupert/studiopass/internal/auth"
	"github.com/dukerupert/studiopass/internal/ledger"
	"github.com/dukerupert/studiopass/internal/model"
)

const maxStaffBody = 4096

// StaffHandler serves the studio's back-office API.
type StaffHandler struct {
	credits *ledger.CreditManager
	logger  *slog.Logger
	now     func() time.Time
}

func NewStaffHandler(cm *ledger.CreditManager, logger *slog.Logger) *StaffHandler {
	return &StaffHandler{credits: cm, logger: logger.With("component", "staff_handler"), now: time.Now}
}

type grantRequest struct {
	Kind     string  `json:"kind"`
	Sessions int     `json:"sessions"`
	Price    float64 `json:"price"`
}

func (h *StaffHandler) GrantPackage(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxStaffBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}
	kind, err := model.ParsePackageKind(req.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "kind"})
		return
	}

	pkg, err := h.credits.GrantPackage(r.Context(), ledger.GrantRequest{
		OwnerID:       r.PathValue("ownerID"),
		Kind:          kind,
		TotalSessions: req.Sessions,
		PriceCents:    int64(math.Round(req.Price * 100)),
		GrantedBy:     auth.StaffID(r.Context()),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, pkg)
}

type sessionRequest struct {
	Date          string  `json:"date"`
	DurationHours float64 `json:"durationHours"`
	Kind          string  `json:"kind"`
}

// RecordSession consumes one credit for a delivered session. The date
// defaults to today.
func (h *StaffHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxStaffBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return
	}

	day := h.now()
	if req.Date != "" {
		var err error
		day, err = time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD", Field: "date"})
			return
		}
	}
	if req.DurationHours == 0 {
		req.DurationHours = 1
	}

	sess, err := h.credits.ConsumeOneCredit(r.Context(), ledger.ConsumeRequest{
		OwnerID:       r.PathValue("ownerID"),
		OccurredOn:    day,
		DurationHours: req.DurationHours,
		Kind:          req.Kind,
		RecordedBy:    auth.StaffID(r.Context()),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

type ledgerResponse struct {
	OwnerID  string          `json:"owner_id"`
	Balance  model.Balance   `json:"balance"`
	Packages []model.Package `json:"packages"`
	Sessions []model.Session `json:"sessions"`
}

func (h *StaffHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("ownerID")
	pkgs, err := h.credits.Packages(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sessions, err := h.credits.Sessions(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if pkgs == nil {
		pkgs = []model.Package{}
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, ledgerResponse{
		OwnerID:  ownerID,
		Balance:  model.BalanceOf(ownerID, pkgs),
		Packages: pkgs,
		Sessions: sessions,
	})
}

func (h *StaffHandler) DeleteOwner(w http.ResponseWriter, r *http.Request) {
	res, err := h.credits.DeleteOwner(r.Context(), r.PathValue("ownerID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StaffHandler) Stats(w http.ResponseWriter, r *http.Request) {
	period := model.PeriodMonth
	if p := r.URL.Query().Get("period"); p != "" {
		period = model.StatsPeriod(p)
	}

	st, err := h.credits.Stats(r.Context(), period, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

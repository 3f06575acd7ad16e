package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/dukerupert/studiopass/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConsumeRequest records one delivered session.
type ConsumeRequest struct {
	OwnerID       string
	OccurredOn    time.Time
	DurationHours float64
	Kind          string
	RecordedBy    string
}

func (r ConsumeRequest) validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return invalid("owner_id", "required")
	}
	if r.OccurredOn.IsZero() {
		return invalid("occurred_on", "required")
	}
	if r.DurationHours <= 0 {
		return invalid("duration_hours", "must be positive")
	}
	if strings.TrimSpace(r.RecordedBy) == "" {
		return invalid("recorded_by", "required")
	}
	return nil
}

// GrantRequest adds credits outside of the payment flow.
type GrantRequest struct {
	OwnerID       string
	Kind          model.PackageKind
	TotalSessions int
	PriceCents    int64
	GrantedBy     string
}

func (r *GrantRequest) normalize() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return invalid("owner_id", "required")
	}
	if !r.Kind.Valid() {
		return invalid("kind", fmt.Sprintf("unknown package kind %q", r.Kind))
	}
	if r.TotalSessions <= 0 {
		return &ValidationError{Field: "total_sessions", Message: "must be positive", Err: ErrInvalidQuantity}
	}
	if strings.TrimSpace(r.GrantedBy) == "" {
		return invalid("granted_by", "required")
	}
	if r.PriceCents < 0 {
		return invalid("price", "must not be negative")
	}
	if offer, ok := model.LookupOffer(r.Kind); ok {
		if r.TotalSessions != offer.Sessions {
			return &ValidationError{
				Field:   "total_sessions",
				Message: fmt.Sprintf("%s holds %d sessions", r.Kind, offer.Sessions),
				Err:     ErrInvalidQuantity,
			}
		}
		if r.PriceCents == 0 {
			r.PriceCents = offer.PriceCents
		}
	}
	return nil
}

// CreditManager owns remaining credits: consumption, grants and owner
// cleanup.
type CreditManager struct {
	store store.Store
	deps
}

func NewCreditManager(s store.Store, opts ...Option) *CreditManager {
	return &CreditManager{store: s, deps: newDeps("credits", opts)}
}

// ConsumeOneCredit takes one credit from the owner's oldest usable package
// and records the session against it.
func (m *CreditManager) ConsumeOneCredit(ctx context.Context, req ConsumeRequest) (_ *model.Session, err error) {
	ctx, span := m.tracer.Start(ctx, "ledger.ConsumeOneCredit",
		trace.WithAttributes(attribute.String("owner.id", req.OwnerID)))
	defer func() { endSpan(span, err) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	// The calendar day as the caller sees it, stored as UTC midnight.
	y, mo, d := req.OccurredOn.Date()
	sess := &model.Session{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		OccurredOn:    time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		DurationHours: req.DurationHours,
		RecordedBy:    req.RecordedBy,
		CreatedAt:     m.clock(),
	}
	if kind := strings.TrimSpace(req.Kind); kind != "" {
		sess.Kind = &kind
	}

	err = m.store.InTx(ctx, func(tx store.Store) error {
		// A lost race on the decrement gets one more look at the remaining packages.
		for attempt := 0; attempt < 2; attempt++ {
			pkgs, err := tx.ListUsablePackages(ctx, req.OwnerID)
			if err != nil {
				return storeErr("consume credit", err)
			}
			if len(pkgs) == 0 {
				return ErrNoCreditAvailable
			}

			n, err := tx.DecrementRemaining(ctx, pkgs[0].ID)
			if err != nil {
				return storeErr("consume credit", err)
			}
			if n == 0 {
				continue
			}

			sess.PackageID = pkgs[0].ID
			if err := tx.CreateSession(ctx, sess); err != nil {
				return storeErr("consume credit", err)
			}
			return nil
		}
		return ErrNoCreditAvailable
	})
	if err != nil {
		if errors.Is(err, ErrNoCreditAvailable) {
			m.logger.Info("no credit available", "owner_id", req.OwnerID)
		}
		return nil, err
	}

	m.logger.Info("session recorded", "owner_id", sess.OwnerID, "package_id", sess.PackageID, "session_id", sess.ID)
	m.publish(model.LedgerEvent{
		Entity:  "session",
		Action:  "created",
		ID:      sess.ID,
		OwnerID: sess.OwnerID,
		Extra:   map[string]any{"package_id": sess.PackageID},
	})
	return sess, nil
}

// GrantPackage creates a completed package directly, as staff do for
// payments taken outside the gateway.
func (m *CreditManager) GrantPackage(ctx context.Context, req GrantRequest) (_ *model.Package, err error) {
	ctx, span := m.tracer.Start(ctx, "ledger.GrantPackage",
		trace.WithAttributes(attribute.String("owner.id", req.OwnerID)))
	defer func() { endSpan(span, err) }()

	if err := req.normalize(); err != nil {
		return nil, err
	}

	now := m.clock()
	grantedBy := req.GrantedBy
	pkg := &model.Package{
		ID:                uuid.NewString(),
		OwnerID:           req.OwnerID,
		Kind:              req.Kind,
		TotalSessions:     req.TotalSessions,
		RemainingSessions: req.TotalSessions,
		PurchaseDate:      now,
		AmountPaid:        req.PriceCents,
		Status:            model.StatusCompleted,
		CreatedBy:         &grantedBy,
		CreatedAt:         now,
	}
	if err := m.store.CreatePackage(ctx, pkg); err != nil {
		return nil, storeErr("grant package", err)
	}

	m.logger.Info("package granted", "owner_id", pkg.OwnerID, "package_id", pkg.ID, "kind", pkg.Kind, "granted_by", grantedBy)
	m.publish(model.LedgerEvent{Entity: "package", Action: "granted", ID: pkg.ID, OwnerID: pkg.OwnerID})
	return pkg, nil
}

func (m *CreditManager) Balance(ctx context.Context, ownerID string) (model.Balance, error) {
	pkgs, err := m.Packages(ctx, ownerID)
	if err != nil {
		return model.Balance{}, err
	}
	return model.BalanceOf(ownerID, pkgs), nil
}

// Packages lists every package of an owner, newest first.
func (m *CreditManager) Packages(ctx context.Context, ownerID string) ([]model.Package, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid("owner_id", "required")
	}
	pkgs, err := m.store.ListPackagesByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list packages", err)
	}
	return pkgs, nil
}

// Sessions lists every session of an owner, newest first.
func (m *CreditManager) Sessions(ctx context.Context, ownerID string) ([]model.Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, invalid("owner_id", "required")
	}
	sessions, err := m.store.ListSessionsByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list sessions", err)
	}
	return sessions, nil
}

// DeleteOwner removes all ledger rows of an owner.
func (m *CreditManager) DeleteOwner(ctx context.Context, ownerID string) (model.DeleteResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return model.DeleteResult{}, invalid("owner_id", "required")
	}
	res, err := m.store.DeleteOwner(ctx, ownerID)
	if err != nil {
		return model.DeleteResult{}, storeErr("delete owner", err)
	}
	if res.Packages == 0 && res.Sessions == 0 {
		return res, fmt.Errorf("owner %s: %w", ownerID, ErrNotFound)
	}

	m.logger.Info("owner deleted", "owner_id", ownerID, "packages", res.Packages, "sessions", res.Sessions)
	m.publish(model.LedgerEvent{Entity: "owner", Action: "deleted", ID: ownerID, OwnerID: ownerID})
	return res, nil
}

func (m *CreditManager) Stats(ctx context.Context, period model.StatsPeriod, now time.Time) (model.Stats, error) {
	if _, err := model.ParseStatsPeriod(string(period)); err != nil {
		return model.Stats{}, invalid("period", err.Error())
	}
	since := period.Since(now)
	row, err := m.store.Stats(ctx, since)
	if err != nil {
		return model.Stats{}, storeErr("ledger stats", err)
	}

	st := model.Stats{
		Period:       period,
		Since:        since,
		RevenueCents: row.RevenueCents,
		Owners:       row.Owners,
		Sessions:     row.Sessions,
	}
	if row.Owners > 0 {
		st.AveragePerOwner = float64(row.Sessions) / float64(row.Owners)
	}
	return st, nil
}

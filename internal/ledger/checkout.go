package ledger

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/dukerupert/studiopass/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Gateway hosts payments for new packages.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params model.CheckoutSessionParams) (model.GatewaySession, error)
}

// CheckoutRequest asks for a payable package. Catalog kinds may leave
// TotalSessions and PriceCents zero.
type CheckoutRequest struct {
	OwnerID       string
	OwnerEmail    string
	Kind          model.PackageKind
	Name          string
	PriceCents    int64
	TotalSessions int
}

type CheckoutResult struct {
	RedirectURL string `json:"url"`
	SessionID   string `json:"sessionId"`
	PackageID   string `json:"packageId"`
}

func (r *CheckoutRequest) normalize() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return invalid("owner_id", "required")
	}
	if strings.TrimSpace(r.OwnerEmail) == "" {
		return invalid("owner_email", "required")
	}
	if _, err := mail.ParseAddress(r.OwnerEmail); err != nil {
		return invalid("owner_email", "not an e-mail address")
	}
	if !r.Kind.Valid() {
		return invalid("kind", fmt.Sprintf("unknown package kind %q", r.Kind))
	}

	offer, ok := model.LookupOffer(r.Kind)
	if !ok {
		if r.TotalSessions <= 0 {
			return &ValidationError{Field: "sessions", Message: "must be positive", Err: ErrInvalidQuantity}
		}
		if r.PriceCents <= 0 {
			return invalid("price", "must be positive")
		}
		if strings.TrimSpace(r.Name) == "" {
			r.Name = "Forfait personnalisé"
		}
		return nil
	}

	if r.TotalSessions != 0 && r.TotalSessions != offer.Sessions {
		return &ValidationError{
			Field:   "sessions",
			Message: fmt.Sprintf("%s holds %d sessions", r.Kind, offer.Sessions),
			Err:     ErrInvalidQuantity,
		}
	}
	if r.PriceCents != 0 && r.PriceCents != offer.PriceCents {
		return invalid("price", fmt.Sprintf("%s costs %d cents", r.Kind, offer.PriceCents))
	}
	r.TotalSessions = offer.Sessions
	r.PriceCents = offer.PriceCents
	if strings.TrimSpace(r.Name) == "" {
		r.Name = offer.Name
	}
	return nil
}

// CheckoutInitiator starts payments. The package is stored as pending only
// once the gateway has accepted the session.
type CheckoutInitiator struct {
	store      store.Store
	gateway    Gateway
	successURL string
	cancelURL  string
	deps
}

func NewCheckoutInitiator(s store.Store, gw Gateway, successURL, cancelURL string, opts ...Option) *CheckoutInitiator {
	return &CheckoutInitiator{
		store:      s,
		gateway:    gw,
		successURL: successURL,
		cancelURL:  cancelURL,
		deps:       newDeps("checkout", opts),
	}
}

func (c *CheckoutInitiator) StartCheckout(ctx context.Context, req CheckoutRequest) (_ *CheckoutResult, err error) {
	ctx, span := c.tracer.Start(ctx, "ledger.StartCheckout",
		trace.WithAttributes(
			attribute.String("owner.id", req.OwnerID),
			attribute.String("package.kind", string(req.Kind)),
		))
	defer func() { endSpan(span, err) }()

	if err := req.normalize(); err != nil {
		return nil, err
	}

	packageID := uuid.NewString()
	gs, err := c.gateway.CreateCheckoutSession(ctx, model.CheckoutSessionParams{
		AmountCents:   req.PriceCents,
		Currency:      model.Currency,
		Name:          req.Name,
		Description:   model.SessionsLabel(req.TotalSessions),
		SuccessURL:    c.successURL,
		CancelURL:     c.cancelURL,
		CustomerEmail: req.OwnerEmail,
		ClientRef:     req.OwnerID,
		Metadata: map[string]string{
			"owner_id":       req.OwnerID,
			"kind":           string(req.Kind),
			"total_sessions": strconv.Itoa(req.TotalSessions),
			"package_id":     packageID,
		},
	})
	if err != nil {
		c.logger.Error("checkout session failed", "owner_id", req.OwnerID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	now := c.clock()
	ref := gs.ID
	pkg := &model.Package{
		ID:                 packageID,
		OwnerID:            req.OwnerID,
		Kind:               req.Kind,
		TotalSessions:      req.TotalSessions,
		RemainingSessions:  req.TotalSessions,
		PurchaseDate:       now,
		AmountPaid:         req.PriceCents,
		ExternalPaymentRef: &ref,
		Status:             model.StatusPending,
		CreatedAt:          now,
	}

	var early *model.UnmatchedEvent
	err = c.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.CreatePackage(ctx, pkg); err != nil {
			return err
		}
		e, err := tx.TakeUnmatchedEvent(ctx, ref)
		if err != nil || e == nil {
			return err
		}
		n, err := tx.TransitionPending(ctx, ref, e.TargetStatus)
		if err != nil {
			return err
		}
		if n == 1 {
			pkg.Status = e.TargetStatus
			early = e
		}
		return nil
	})
	if err != nil {
		// The gateway session is abandoned and expires on its own.
		c.logger.Error("pending package insert failed", "owner_id", req.OwnerID, "session_id", ref, "error", err)
		return nil, storeErr("start checkout", err)
	}

	c.logger.Info("checkout started", "owner_id", pkg.OwnerID, "package_id", pkg.ID, "session_id", ref, "amount", pkg.AmountPaid)
	c.publish(model.LedgerEvent{Entity: "package", Action: "pending", ID: pkg.ID, OwnerID: pkg.OwnerID})
	if early != nil {
		c.logger.Info("applied early payment event", "package_id", pkg.ID, "event_type", early.EventType, "status", pkg.Status)
		c.publish(model.LedgerEvent{Entity: "package", Action: string(pkg.Status), ID: pkg.ID, OwnerID: pkg.OwnerID})
		if pkg.Status == model.StatusCompleted && c.notifier != nil {
			if err := c.notifier.PaymentConfirmed(ctx, *pkg, req.OwnerEmail); err != nil {
				c.logger.Error("receipt failed", "package_id", pkg.ID, "error", err)
			}
		}
	}

	return &CheckoutResult{RedirectURL: gs.URL, SessionID: ref, PackageID: pkg.ID}, nil
}

package ledger

import (
	"context"
	"fmt"

	"github.com/dukerupert/studiopass/internal/model"
	"github.com/dukerupert/studiopass/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventVerifier authenticates a raw provider notification.
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (model.PaymentEvent, error)
}

// Ack is returned for every verified event, applied or not.
type Ack struct {
	Received bool                 `json:"received"`
	Applied  bool                 `json:"applied"`
	Outcome  model.PaymentOutcome `json:"outcome,omitempty"`
}

// Reconciler moves pending packages to completed or cancelled as payment
// events arrive. Terminal packages never change again, so replays and
// out-of-order deliveries are no-ops.
type Reconciler struct {
	store    store.Store
	verifier EventVerifier
	deps
}

func NewReconciler(s store.Store, v EventVerifier, opts ...Option) *Reconciler {
	return &Reconciler{store: s, verifier: v, deps: newDeps("reconciler", opts)}
}

func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (Ack, error) {
	ev, err := r.verifier.VerifyEvent(payload, signature)
	if err != nil {
		r.logger.Warn("webhook verification failed", "error", err)
		return Ack{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return r.Apply(ctx, ev)
}

// Apply reconciles an already verified event.
func (r *Reconciler) Apply(ctx context.Context, ev model.PaymentEvent) (_ Ack, err error) {
	ctx, span := r.tracer.Start(ctx, "ledger.Reconcile",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type),
			attribute.String("payment.ref", ev.Ref),
		))
	defer func() { endSpan(span, err) }()

	ack := Ack{Received: true, Outcome: ev.Outcome}
	target, actionable := ev.Outcome.TargetStatus()
	if !actionable {
		r.logger.Debug("ignoring payment event", "event_id", ev.ID, "type", ev.Type)
		return ack, nil
	}
	if ev.Ref == "" {
		r.logger.Warn("payment event without reference", "event_id", ev.ID, "type", ev.Type)
		return ack, nil
	}

	var applied *model.Package
	err = r.store.InTx(ctx, func(tx store.Store) error {
		pkg, err := tx.GetPackageByPaymentRef(ctx, ev.Ref)
		if err != nil {
			return err
		}
		if pkg == nil {
			stored, err := tx.RecordUnmatchedEvent(ctx, model.UnmatchedEvent{
				ExternalPaymentRef: ev.Ref,
				TargetStatus:       target,
				EventType:          ev.Type,
				ReceivedAt:         r.clock(),
			})
			if err != nil {
				return err
			}
			r.logger.Warn("payment event for unknown package", "ref", ev.Ref, "type", ev.Type, "recorded", stored)
			return nil
		}
		if ev.OwnerID != "" && ev.OwnerID != pkg.OwnerID {
			r.logger.Error("payment event owner mismatch",
				"ref", ev.Ref, "package_id", pkg.ID, "package_owner", pkg.OwnerID, "event_owner", ev.OwnerID)
			return nil
		}
		if pkg.Status.Terminal() {
			r.logger.Info("package already settled", "package_id", pkg.ID, "status", pkg.Status, "type", ev.Type)
			return nil
		}

		n, err := tx.TransitionPending(ctx, ev.Ref, target)
		if err != nil {
			return err
		}
		if n == 1 {
			pkg.Status = target
			applied = pkg
		}
		return nil
	})
	if err != nil {
		r.logger.Error("reconcile failed", "ref", ev.Ref, "type", ev.Type, "error", err)
		return Ack{}, storeErr("reconcile payment", err)
	}
	if applied == nil {
		return ack, nil
	}

	ack.Applied = true
	r.logger.Info("package status updated", "package_id", applied.ID, "owner_id", applied.OwnerID, "status", applied.Status)
	r.publish(model.LedgerEvent{Entity: "package", Action: string(applied.Status), ID: applied.ID, OwnerID: applied.OwnerID})

	if applied.Status == model.StatusCompleted && r.notifier != nil && ev.CustomerEmail != "" {
		if err := r.notifier.PaymentConfirmed(ctx, *applied, ev.CustomerEmail); err != nil {
			r.logger.Error("receipt failed", "package_id", applied.ID, "error", err)
		}
	}
	return ack, nil
}

// Package ledger holds the package/credit ledger: credit consumption, checkout
// initiation and payment reconciliation.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/studiopass/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dukerupert/studiopass/internal/ledger"

// Publisher receives ledger changes after they are committed.
type Publisher interface {
	Publish(model.LedgerEvent)
}

// Notifier tells an owner that a payment was confirmed.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, pkg model.Package, to string) error
}

type deps struct {
	logger   *slog.Logger
	events   Publisher
	notifier Notifier
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures a ledger component.
type Option func(*deps)

func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.logger = l }
}

func WithPublisher(p Publisher) Option {
	return func(d *deps) { d.events = p }
}

func WithNotifier(n Notifier) Option {
	return func(d *deps) { d.notifier = n }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(component string, opts []Option) deps {
	d := deps{
		logger: slog.Default(),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(&d)
	}
	d.logger = d.logger.With("component", component)
	return d
}

func (d deps) publish(e model.LedgerEvent) {
	if d.events != nil {
		d.events.Publish(e)
	}
}

func (d deps) clock() time.Time {
	return d.now().UTC()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v82"
	checksession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dukerupert/studiopass/internal/model"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type Client struct {
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	stripe.Key = cfg.SecretKey
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger.With("component", "stripe")}
}

func (c *Client) SuccessURL() string { return c.cfg.SuccessURL }
func (c *Client) CancelURL() string  { return c.cfg.CancelURL }

// CreateCheckoutSession creates a one-off payment session for a package.
func (c *Client) CreateCheckoutSession(ctx context.Context, p model.CheckoutSessionParams) (model.GatewaySession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.Name),
						Description: stripe.String(p.Description),
					},
					UnitAmount: stripe.Int64(p.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.ClientRef != "" {
		params.ClientReferenceID = stripe.String(p.ClientRef)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := checksession.New(params)
	if err != nil {
		return model.GatewaySession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return model.GatewaySession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header and reduces the event to a
// model.PaymentEvent. Without a webhook secret the payload is trusted as is.
func (c *Client) VerifyEvent(payload []byte, sigHeader string) (model.PaymentEvent, error) {
	var event stripe.Event
	if c.cfg.WebhookSecret == "" {
		c.logger.Warn("webhook secret not configured, accepting unverified event")
		if err := json.Unmarshal(payload, &event); err != nil {
			return model.PaymentEvent{}, fmt.Errorf("parse webhook event: %w", err)
		}
	} else {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, sigHeader, c.cfg.WebhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return model.PaymentEvent{}, fmt.Errorf("construct webhook event: %w", err)
		}
	}
	return MapEvent(event)
}

// MapEvent translates a Stripe event into a payment outcome. Event types the
// ledger does not act on map to model.OutcomeNone.
func MapEvent(event stripe.Event) (model.PaymentEvent, error) {
	ev := model.PaymentEvent{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":
	default:
		return ev, nil
	}

	if event.Data == nil {
		return ev, fmt.Errorf("event %s has no data", event.ID)
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return ev, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	ev.Ref = sess.ID
	ev.OwnerID = sess.Metadata["owner_id"]
	ev.AmountTotal = sess.AmountTotal
	ev.CustomerEmail = sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		ev.CustomerEmail = sess.CustomerDetails.Email
	}

	switch event.Type {
	case "checkout.session.completed":
		// Delayed payment methods complete the session before the money arrives.
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid {
			ev.Outcome = model.OutcomeConfirmed
		}
	case "checkout.session.async_payment_succeeded":
		ev.Outcome = model.OutcomeConfirmed
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		ev.Outcome = model.OutcomeFailed
	}
	return ev, nil
}

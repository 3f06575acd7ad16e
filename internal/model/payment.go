package model

// CheckoutSessionParams is what the payment gateway needs to host a payment.
type CheckoutSessionParams struct {
	AmountCents   int64
	Currency      string
	Name          string
	Description   string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	ClientRef     string
	Metadata      map[string]string
}

// GatewaySession is the provider-side checkout session.
type GatewaySession struct {
	ID  string
	URL string
}

// PaymentEvent is a verified provider notification reduced to what the
// reconciler needs.
type PaymentEvent struct {
	ID            string
	Type          string
	Ref           string
	Outcome       PaymentOutcome
	OwnerID       string
	CustomerEmail string
	AmountTotal   int64
}

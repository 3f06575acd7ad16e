package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dukerupert/studiopass/internal/model"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

// TaxNote is printed on every receipt.
const TaxNote = "TVA non applicable, article 293 B du CGI"

type Client struct {
	serverToken string
	fromEmail   string
	studioName  string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

func NewClient(serverToken, fromEmail, studioName string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		studioName:  studioName,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// PaymentConfirmed sends the receipt for a package whose payment went through.
func (c *Client) PaymentConfirmed(ctx context.Context, pkg model.Package, toEmail string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	amount := formatEuros(pkg.AmountPaid)
	subject := fmt.Sprintf("%s : confirmation de votre achat", c.studioName)
	textBody := fmt.Sprintf(
		"Merci pour votre achat.\n\n%s\nMontant payé : %s\nRéférence : %s\n\n%s",
		model.SessionsLabel(pkg.TotalSessions), amount, pkg.ID, TaxNote,
	)
	htmlBody := fmt.Sprintf(
		`<p>Merci pour votre achat.</p><p>%s<br>Montant payé : %s<br>Référence : %s</p><p><small>%s</small></p>`,
		model.SessionsLabel(pkg.TotalSessions), amount, pkg.ID, TaxNote,
	)

	return c.send(ctx, postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "receipt",
	})
}

func (c *Client) send(ctx context.Context, payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}

func formatEuros(cents int64) string {
	return fmt.Sprintf("%d,%02d €", cents/100, cents%100)
}

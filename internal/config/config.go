package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port       string `env:"STUDIOPASS_PORT" envDefault:"8090"`
	BaseURL    string `env:"STUDIOPASS_BASE_URL"`
	StudioName string `env:"STUDIOPASS_STUDIO_NAME" envDefault:"Studio Yoga"`

	LogLevel  string `env:"STUDIOPASS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"STUDIOPASS_LOG_FORMAT" envDefault:"text"`

	DBDriver string `env:"STUDIOPASS_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"STUDIOPASS_DB_DSN" envDefault:"studiopass.db"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	SuccessPath         string `env:"STUDIOPASS_SUCCESS_PATH" envDefault:"/paiement/succes?session_id={CHECKOUT_SESSION_ID}"`
	CancelPath          string `env:"STUDIOPASS_CANCEL_PATH" envDefault:"/forfaits"`

	PostmarkToken string `env:"STUDIOPASS_POSTMARK_TOKEN"`
	FromEmail     string `env:"STUDIOPASS_FROM_EMAIL"`

	// STUDIOPASS_STAFF_TOKENS=marie:$2a$10$...,paul:$2a$10$...
	StaffTokens map[string]string `env:"STUDIOPASS_STAFF_TOKENS" envSeparator:"," envKeyValSeparator:":"`
	WSOrigins   []string          `env:"STUDIOPASS_WS_ORIGINS" envSeparator:","`

	OTelEndpoint string `env:"STUDIOPASS_OTEL_ENDPOINT"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SuccessURL() string { return c.BaseURL + c.SuccessPath }
func (c *Config) CancelURL() string  { return c.BaseURL + c.CancelPath }

// PaymentsEnabled reports whether checkout can reach Stripe.
func (c *Config) PaymentsEnabled() bool { return c.StripeSecretKey != "" }

func (c *Config) validate() error {
	var problems []string

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("STUDIOPASS_DB_DRIVER %q is not sqlite or postgres", c.DBDriver))
	}
	if c.DBDSN == "" {
		problems = append(problems, "STUDIOPASS_DB_DSN is required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("STUDIOPASS_BASE_URL %q is not an absolute URL", c.BaseURL))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("STUDIOPASS_LOG_FORMAT %q is not text or json", c.LogFormat))
	}
	if c.StripeSecretKey != "" && !strings.HasPrefix(c.StripeSecretKey, "sk_") && !strings.HasPrefix(c.StripeSecretKey, "rk_") {
		problems = append(problems, "STRIPE_SECRET_KEY must start with sk_ or rk_")
	}
	if c.StripeWebhookSecret != "" && !strings.HasPrefix(c.StripeWebhookSecret, "whsec_") {
		problems = append(problems, "STRIPE_WEBHOOK_SECRET must start with whsec_")
	}
	if (c.PostmarkToken == "") != (c.FromEmail == "") {
		problems = append(problems, "STUDIOPASS_POSTMARK_TOKEN and STUDIOPASS_FROM_EMAIL must be set together")
	}
	for id, hash := range c.StaffTokens {
		if !strings.HasPrefix(hash, "$2") {
			problems = append(problems, fmt.Sprintf("staff token for %q is not a bcrypt hash", id))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, ", "))
	}
	return nil
}

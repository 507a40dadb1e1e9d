package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"kickoff/pkg/platform/middleware/metadata"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	TrustedProxies  []netip.Prefix

	Intake     Intake
	SharePoint SharePoint
	Email      Email
	Events     Events
}

// Intake configures the webhook pipeline.
type Intake struct {
	WebhookSecret    string
	ExpectedFormID   string
	FailClosed       bool
	MappingFile      string
	ApplicantsListID string
	NewsletterListID string
	StoreTimeout     time.Duration
	NotifyTimeout    time.Duration
}

// SharePoint holds the Graph app registration and target site.
type SharePoint struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	SiteID       string
	GraphURL     string
	LoginURL     string
}

// Configured reports whether every Graph credential is present.
func (s SharePoint) Configured() bool {
	return s.TenantID != "" && s.ClientID != "" && s.ClientSecret != "" && s.SiteID != ""
}

type Email struct {
	APIKey   string
	From     string
	ReplyTo  string
	Subject  string
	Endpoint string

	// SummaryFields are record fields repeated in the thank-you email.
	SummaryFields []string
}

// Configured reports whether thank-you emails can be sent.
func (e Email) Configured() bool {
	return e.APIKey != "" && e.From != ""
}

type Events struct {
	Brokers string
	Topic   string
}

var (
	DefaultMaxBodyBytes    int64 = 64 << 10
	DefaultStoreTimeout          = 10 * time.Second
	DefaultNotifyTimeout         = 10 * time.Second
	DefaultShutdownTimeout       = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:            getenv("ADDR", ":8080"),
		Environment:     strings.ToLower(getenv("ENVIRONMENT", EnvDevelopment)),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		MaxBodyBytes:    DefaultMaxBodyBytes,
		ShutdownTimeout: DefaultShutdownTimeout,
		Intake: Intake{
			WebhookSecret:    os.Getenv("TYPEFORM_WEBHOOK_SECRET"),
			ExpectedFormID:   os.Getenv("TYPEFORM_FORM_ID"),
			MappingFile:      os.Getenv("FIELD_MAPPING_FILE"),
			ApplicantsListID: os.Getenv("SHAREPOINT_APPLICANTS_LIST_ID"),
			NewsletterListID: os.Getenv("SHAREPOINT_NEWSLETTER_LIST_ID"),
			StoreTimeout:     DefaultStoreTimeout,
			NotifyTimeout:    DefaultNotifyTimeout,
		},
		SharePoint: SharePoint{
			TenantID:     os.Getenv("SHAREPOINT_TENANT_ID"),
			ClientID:     os.Getenv("SHAREPOINT_CLIENT_ID"),
			ClientSecret: os.Getenv("SHAREPOINT_CLIENT_SECRET"),
			SiteID:       os.Getenv("SHAREPOINT_SITE_ID"),
			GraphURL:     os.Getenv("GRAPH_BASE_URL"),
			LoginURL:     os.Getenv("GRAPH_LOGIN_URL"),
		},
		Email: Email{
			APIKey:        os.Getenv("RESEND_API_KEY"),
			From:          os.Getenv("RESEND_FROM_EMAIL"),
			ReplyTo:       os.Getenv("RESEND_REPLY_TO"),
			Subject:       os.Getenv("THANK_YOU_SUBJECT"),
			Endpoint:      os.Getenv("RESEND_BASE_URL"),
			SummaryFields: listEnv("THANK_YOU_FIELDS"),
		},
		Events: Events{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   getenv("SUBMISSION_EVENTS_TOPIC", "form.submissions"),
		},
	}

	var err error
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		if cfg.MaxBodyBytes, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Server{}, fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
	}
	if cfg.Intake.StoreTimeout, err = durationEnv("STORE_TIMEOUT", DefaultStoreTimeout); err != nil {
		return Server{}, err
	}
	if cfg.Intake.NotifyTimeout, err = durationEnv("NOTIFY_TIMEOUT", DefaultNotifyTimeout); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout); err != nil {
		return Server{}, err
	}

	// Production fails closed unless explicitly overridden.
	cfg.Intake.FailClosed = cfg.Environment == EnvProduction
	if v := os.Getenv("SIGNATURE_FAIL_CLOSED"); v != "" {
		if cfg.Intake.FailClosed, err = strconv.ParseBool(v); err != nil {
			return Server{}, fmt.Errorf("SIGNATURE_FAIL_CLOSED: %w", err)
		}
	}

	if cfg.TrustedProxies, err = metadata.ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES")); err != nil {
		return Server{}, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot run with.
func (c Server) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL: unknown level %q", c.LogLevel)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Intake.StoreTimeout <= 0 || c.Intake.NotifyTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT and NOTIFY_TIMEOUT must be positive")
	}
	if c.Environment == EnvProduction && c.Intake.WebhookSecret == "" && !c.Intake.FailClosed {
		return fmt.Errorf("TYPEFORM_WEBHOOK_SECRET is required in production unless SIGNATURE_FAIL_CLOSED is true")
	}
	if c.Email.APIKey != "" && c.Email.From == "" {
		return fmt.Errorf("RESEND_FROM_EMAIL is required when RESEND_API_KEY is set")
	}
	sp := c.SharePoint
	if (sp.TenantID != "" || sp.ClientID != "" || sp.ClientSecret != "" || sp.SiteID != "") && !sp.Configured() {
		return fmt.Errorf("SHAREPOINT_TENANT_ID, SHAREPOINT_CLIENT_ID, SHAREPOINT_CLIENT_SECRET and SHAREPOINT_SITE_ID must be set together")
	}
	return nil
}

// IsProduction reports whether the server runs with production defaults.
func (c Server) IsProduction() bool {
	return c.Environment == EnvProduction
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

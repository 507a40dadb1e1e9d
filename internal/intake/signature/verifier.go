// Package signature authenticates vendor webhook bodies.
//
// The vendor signs the exact request bytes with HMAC-SHA256 using a shared
// secret and sends "sha256=" followed by the base64 digest in a header.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"strings"
)

// HeaderName is the request header carrying the signature.
const HeaderName = "Typeform-Signature"

const prefix = "sha256="

// Result is the outcome of a verification.
type Result int

const (
	// Invalid covers malformed headers and digest mismatches.
	Invalid Result = iota
	Valid
	// Missing means the header was absent. This fails whether or not a
	// secret is configured.
	Missing
	// Bypassed means no secret is configured and fail-closed is off.
	Bypassed
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Missing:
		return "missing"
	case Bypassed:
		return "bypassed"
	default:
		return "invalid"
	}
}

// Authentic reports whether processing may continue.
func (r Result) Authentic() bool {
	return r == Valid || r == Bypassed
}

// Verifier checks signatures against one shared secret.
type Verifier struct {
	secret     []byte
	failClosed bool
	logger     *slog.Logger
	onBypass   func()
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithFailClosed rejects every request when no secret is configured.
func WithFailClosed(failClosed bool) Option {
	return func(v *Verifier) {
		v.failClosed = failClosed
	}
}

// WithLogger sets the logger used to warn about bypassed checks.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithBypassHook registers a callback run on every bypassed check.
func WithBypassHook(fn func()) Option {
	return func(v *Verifier) {
		v.onBypass = fn
	}
}

// New creates a verifier. An empty secret means a present header is not
// checked unless the verifier is fail-closed. An absent header always fails.
func New(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret: []byte(secret),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Configured reports whether a secret is set.
func (v *Verifier) Configured() bool {
	return len(v.secret) > 0
}

// Verify checks header against body. body must be the bytes exactly as
// received, before any parsing.
func (v *Verifier) Verify(body []byte, header string) Result {
	header = strings.TrimSpace(header)
	if header == "" {
		return Missing
	}

	if !v.Configured() {
		if v.failClosed {
			return Invalid
		}
		v.logger.Warn("webhook signature secret not configured, skipping verification")
		if v.onBypass != nil {
			v.onBypass()
		}
		return Bypassed
	}

	encoded, ok := strings.CutPrefix(header, prefix)
	if !ok {
		return Invalid
	}
	got, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(got) != sha256.Size {
		return Invalid
	}

	if !hmac.Equal(got, digest(body, v.secret)) {
		return Invalid
	}
	return Valid
}

// Sign returns the header value the vendor would send for body.
func Sign(body []byte, secret string) string {
	return prefix + base64.StdEncoding.EncodeToString(digest(body, []byte(secret)))
}

func digest(body, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

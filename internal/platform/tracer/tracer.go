// Package tracer lets the intake and newsletter services emit spans without
// importing OpenTelemetry. OTelTracer is used in the server; NoopTracer and
// Recorder are for tests.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashEmail returns a short SHA-256 digest of a normalised email address so
// traces can be correlated without carrying the address itself.
func HashEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanIntakeProcess = "intake.process"
	SpanIntakeStore   = "intake.store"
	SpanIntakeNotify  = "intake.notify"
	SpanNewsletter    = "newsletter.subscribe"
)

// Attribute keys.
const (
	AttrFormID       = "form.id"
	AttrOutcome      = "intake.outcome"
	AttrUnmapped     = "intake.unmapped_refs"
	AttrItemID       = "store.item_id"
	AttrEmailHash    = "notify.email_hash"
	AttrEmailSent    = "notify.sent"
	AttrSigBypassed  = "signature.bypassed"
	AttrListID       = "store.list_id"
	AttrAnswerCount  = "intake.answers"
	AttrMissingCount = "intake.missing_required"
)

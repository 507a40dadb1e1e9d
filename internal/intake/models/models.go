package models

import "time"

// ValueKind tags the shape of an answer's value.
type ValueKind string

const (
	KindText        ValueKind = "text"
	KindEmail       ValueKind = "email"
	KindBoolean     ValueKind = "boolean"
	KindChoice      ValueKind = "choice"
	KindChoices     ValueKind = "choices"
	KindPhoneNumber ValueKind = "phone_number"
	KindURL         ValueKind = "url"
	KindNumber      ValueKind = "number"
	KindDate        ValueKind = "date"
)

// Answer is one question/response pair. Which value field is meaningful
// depends on Kind: Text for text-like kinds and single choice, Bool for
// boolean, Labels for multiple choice, Number for number.
type Answer struct {
	FieldRef string
	Kind     ValueKind
	Text     string
	Bool     bool
	Labels   []string
	Number   float64
}

// Submission is one vendor form event.
type Submission struct {
	FormID      string
	Token       string
	SubmittedAt time.Time
	Answers     []Answer
}

// Record is the flattened submission handed to the record store.
// It is built once per request by the mapper and not modified afterwards.
type Record struct {
	Fields          map[string]string
	Email           string // empty when absent
	FullName        string // empty when absent
	MissingRequired []string
	UnmappedRefs    []string
}

// HasMissing reports whether any required target went unanswered.
func (r Record) HasMissing() bool {
	return len(r.MissingRequired) > 0
}

// SubmissionEvent is published after a submission has been stored.
type SubmissionEvent struct {
	ID           string    `json:"id"`
	FormID       string    `json:"form_id"`
	Token        string    `json:"token,omitempty"`
	ItemID       string    `json:"item_id"`
	EmailSent    bool      `json:"email_sent"`
	UnmappedRefs []string  `json:"unmapped_refs"`
	SubmittedAt  time.Time `json:"submitted_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ThankYou is what the notifier needs to send a confirmation.
type ThankYou struct {
	Email    string
	FullName string
	FormID   string
	Fields   map[string]string
}

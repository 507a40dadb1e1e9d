package testutil

import (
	"encoding/json"
	"time"

	"kickoff/internal/intake/signature"
)

// Deterministic values for webhook fixtures.
const (
	FormID        = "FORM123"
	WebhookSecret = "whsec_test_secret"
)

// SubmittedAt is the submission time used by every fixture.
var SubmittedAt = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

// Webhook builds vendor webhook bodies. Answers keep insertion order.
type Webhook struct {
	formID  string
	token   string
	answers []map[string]any
}

// NewWebhook starts an empty submission for formID.
func NewWebhook(formID string) *Webhook {
	return &Webhook{formID: formID, token: "tok_01HX9Q"}
}

// CompleteApplication returns a submission answering every required question
// of the built-in applicants table.
func CompleteApplication(formID string) *Webhook {
	return NewWebhook(formID).
		Text("full_name", "Alex Morgan").
		Email("email", "alex.morgan@example.com").
		Choice("city", "Leeds").
		Choice("position", "Midfielder").
		Bool("terms_accepted", true)
}

func (w *Webhook) Token(token string) *Webhook {
	w.token = token
	return w
}

func (w *Webhook) Text(ref, value string) *Webhook {
	return w.Raw("text", ref, map[string]any{"text": value})
}

func (w *Webhook) Email(ref, value string) *Webhook {
	return w.Raw("email", ref, map[string]any{"email": value})
}

func (w *Webhook) Bool(ref string, value bool) *Webhook {
	return w.Raw("boolean", ref, map[string]any{"boolean": value})
}

func (w *Webhook) Choice(ref, label string) *Webhook {
	return w.Raw("choice", ref, map[string]any{"choice": map[string]any{"label": label}})
}

func (w *Webhook) Choices(ref string, labels ...string) *Webhook {
	return w.Raw("choices", ref, map[string]any{"choices": map[string]any{"labels": labels}})
}

// Raw appends an answer of any type with the given value keys.
func (w *Webhook) Raw(answerType, ref string, value map[string]any) *Webhook {
	answer := map[string]any{
		"type":  answerType,
		"field": map[string]any{"id": "fld_" + ref, "ref": ref, "type": answerType},
	}
	for k, v := range value {
		answer[k] = v
	}
	w.answers = append(w.answers, answer)
	return w
}

// Bytes renders the webhook envelope.
func (w *Webhook) Bytes() []byte {
	answers := w.answers
	if answers == nil {
		answers = []map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"event_id":   "01HX9QEVENT",
		"event_type": "form_response",
		"form_response": map[string]any{
			"form_id":      w.formID,
			"token":        w.token,
			"submitted_at": SubmittedAt.Format(time.RFC3339),
			"answers":      answers,
		},
	})
	if err != nil {
		panic(err)
	}
	return body
}

// Signed renders the body and the signature header for secret.
func (w *Webhook) Signed(secret string) ([]byte, string) {
	body := w.Bytes()
	return body, signature.Sign(body, secret)
}

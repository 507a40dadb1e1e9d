package models

import (
	"encoding/json"
	"fmt"
	"time"

	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/validation"
)

// WebhookPayload is the Typeform webhook envelope.
type WebhookPayload struct {
	EventID      string        `json:"event_id"`
	EventType    string        `json:"event_type"`
	FormResponse *FormResponse `json:"form_response" validate:"required"`
}

// FormResponse is the submission wrapped by the envelope.
type FormResponse struct {
	FormID      string      `json:"form_id" validate:"notblank"`
	Token       string      `json:"token"`
	SubmittedAt time.Time   `json:"submitted_at" validate:"required"`
	Answers     []RawAnswer `json:"answers" validate:"dive"`
}

// RawAnswer is one answer as the vendor sends it: a type tag plus a value
// under a key named after the tag.
type RawAnswer struct {
	Type        string        `json:"type" validate:"required,oneof=text email boolean choice choices phone_number url number date"`
	Field       AnswerField   `json:"field"`
	Text        *string       `json:"text,omitempty"`
	Email       *string       `json:"email,omitempty"`
	Boolean     *bool         `json:"boolean,omitempty"`
	Choice      *ChoiceValue  `json:"choice,omitempty"`
	Choices     *ChoicesValue `json:"choices,omitempty"`
	PhoneNumber *string       `json:"phone_number,omitempty"`
	URL         *string       `json:"url,omitempty"`
	Number      *float64      `json:"number,omitempty"`
	Date        *string       `json:"date,omitempty"`
}

// AnswerField identifies the question an answer belongs to.
type AnswerField struct {
	ID   string `json:"id"`
	Ref  string `json:"ref" validate:"notblank"`
	Type string `json:"type"`
}

type ChoiceValue struct {
	Label string `json:"label"`
}

type ChoicesValue struct {
	Labels []string `json:"labels"`
}

// ParseWebhook decodes and schema-checks a raw webhook body.
// Any failure is a CodeBadRequest domain error.
func ParseWebhook(raw []byte) (*Submission, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "body is not valid JSON")
	}
	if err := validation.Validate(&payload); err != nil {
		return nil, &dErrors.Error{Code: dErrors.CodeBadRequest, Message: err.Error(), Err: err}
	}
	return payload.FormResponse.toSubmission()
}

func (f *FormResponse) toSubmission() (*Submission, error) {
	sub := &Submission{
		FormID:      f.FormID,
		Token:       f.Token,
		SubmittedAt: f.SubmittedAt,
		Answers:     make([]Answer, 0, len(f.Answers)),
	}
	for i, raw := range f.Answers {
		answer, err := raw.toAnswer()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("answers[%d]: %s", i, err.Error()))
		}
		sub.Answers = append(sub.Answers, answer)
	}
	return sub, nil
}

// toAnswer checks that the value for the declared tag is present.
func (a RawAnswer) toAnswer() (Answer, error) {
	answer := Answer{FieldRef: a.Field.Ref, Kind: ValueKind(a.Type)}
	missing := func() (Answer, error) {
		return Answer{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s answer has no %s value", a.Type, a.Type))
	}

	switch answer.Kind {
	case KindText:
		if a.Text == nil {
			return missing()
		}
		answer.Text = *a.Text
	case KindEmail:
		if a.Email == nil {
			return missing()
		}
		answer.Text = *a.Email
	case KindBoolean:
		if a.Boolean == nil {
			return missing()
		}
		answer.Bool = *a.Boolean
	case KindChoice:
		if a.Choice == nil {
			return missing()
		}
		answer.Text = a.Choice.Label
	case KindChoices:
		if a.Choices == nil {
			return missing()
		}
		answer.Labels = append([]string(nil), a.Choices.Labels...)
	case KindPhoneNumber:
		if a.PhoneNumber == nil {
			return missing()
		}
		answer.Text = *a.PhoneNumber
	case KindURL:
		if a.URL == nil {
			return missing()
		}
		answer.Text = *a.URL
	case KindNumber:
		if a.Number == nil {
			return missing()
		}
		answer.Number = *a.Number
	case KindDate:
		if a.Date == nil {
			return missing()
		}
		answer.Text = *a.Date
	default:
		return Answer{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown answer type %q", a.Type))
	}
	return answer, nil
}

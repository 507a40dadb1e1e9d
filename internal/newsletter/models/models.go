package models

import (
	"strings"

	dErrors "kickoff/pkg/domain-errors"
	"kickoff/pkg/validation"
)

// SubscribeRequest is the body of POST /api/newsletter.
type SubscribeRequest struct {
	Email  string `json:"email" validate:"required,email,max=255"`
	Name   string `json:"name" validate:"max=200"`
	Source string `json:"source" validate:"max=100"`
}

func (r *SubscribeRequest) Sanitize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.Join(strings.Fields(r.Name), " ")
	r.Source = strings.TrimSpace(r.Source)
}

func (r *SubscribeRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.ToLower(r.Email)
	r.Source = strings.ToLower(r.Source)
}

func (r *SubscribeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// Subscription is a validated sign-up ready to be stored.
type Subscription struct {
	Email     string
	Name      string
	Source    string
	UserAgent string
}

type SubscribeResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

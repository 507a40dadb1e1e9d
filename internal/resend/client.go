// Package resend sends transactional email through the Resend API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dErrors "kickoff/pkg/domain-errors"
)

const (
	DefaultBaseURL     = "https://api.resend.com"
	defaultHTTPTimeout = 10 * time.Second
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Email is one outgoing plain-text message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Client is a minimal Resend API client.
type Client struct {
	apiKey  string
	baseURL string
	http    HTTPDoer
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts the email and returns the Resend message id.
func (c *Client) Send(ctx context.Context, email Email) (string, error) {
	payload, err := json.Marshal(email)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode email")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "resend: request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "resend: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "resend: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.Unmarshal(body, &er)
		return "", dErrors.New(dErrors.CodeDependency,
			fmt.Sprintf("resend: %d %s: %s", resp.StatusCode, er.Name, er.Message))
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "resend: decode response")
	}
	return sr.ID, nil
}

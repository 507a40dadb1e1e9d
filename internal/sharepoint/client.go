// Package sharepoint writes list items through Microsoft Graph using an
// app-only token.
package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "kickoff/pkg/domain-errors"
)

const (
	DefaultGraphURL    = "https://graph.microsoft.com"
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 1 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies bearer tokens for Graph.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client calls the Graph list item API for one site.
type Client struct {
	graphURL string
	siteID   string
	tokens   TokenProvider
	http     HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

func WithGraphURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.graphURL = strings.TrimRight(u, "/")
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

func NewClient(siteID string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		graphURL: DefaultGraphURL,
		siteID:   siteID,
		tokens:   tokens,
		http:     &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createItemRequest struct {
	Fields map[string]string `json:"fields"`
}

type listItem struct {
	ID string `json:"id"`
}

// CreateListItem adds an item to listID and returns its id.
func (c *Client) CreateListItem(ctx context.Context, listID string, fields map[string]string) (string, error) {
	payload, err := json.Marshal(createItemRequest{Fields: fields})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode list item")
	}
	endpoint := fmt.Sprintf("%s/v1.0/sites/%s/lists/%s/items",
		c.graphURL, url.PathEscape(c.siteID), url.PathEscape(listID))

	var item listItem
	if err := c.do(ctx, "create item", http.MethodPost, endpoint, payload, &item); err != nil {
		return "", err
	}
	if item.ID == "" {
		return "", dErrors.New(dErrors.CodeDependency, "sharepoint create item: response has no id")
	}
	return item.ID, nil
}

// Check resolves the configured site. Suitable as a readiness check.
func (c *Client) Check(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1.0/sites/%s?$select=id", c.graphURL, url.PathEscape(c.siteID))
	return c.do(ctx, "get site", http.MethodGet, endpoint, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload []byte, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build "+op+" request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeDependency, "sharepoint "+op+": read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeDependency, "sharepoint "+op+": decode response")
	}
	return nil
}

package sharepoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	dErrors "kickoff/pkg/domain-errors"
)

const (
	DefaultLoginURL = "https://login.microsoftonline.com"
	graphScope      = "https://graph.microsoft.com/.default"

	// Tokens are refreshed this long before they expire.
	expiryLeeway = time.Minute
	// Used when the token response carries neither expires_in nor exp.
	fallbackLifetime = 5 * time.Minute
)

// Credentials identify the app registration used for the client
// credentials grant.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// TokenSource fetches and caches Graph access tokens. Concurrent refreshes
// are collapsed into one token request.
type TokenSource struct {
	creds    Credentials
	loginURL string
	client   HTTPDoer
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
	group  singleflight.Group
}

// TokenOption configures a TokenSource.
type TokenOption func(*TokenSource)

func WithLoginURL(u string) TokenOption {
	return func(t *TokenSource) {
		if u != "" {
			t.loginURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTokenHTTPClient(c HTTPDoer) TokenOption {
	return func(t *TokenSource) {
		if c != nil {
			t.client = c
		}
	}
}

func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *TokenSource) {
		t.now = now
	}
}

func NewTokenSource(creds Credentials, opts ...TokenOption) *TokenSource {
	t := &TokenSource{
		creds:    creds,
		loginURL: DefaultLoginURL,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// Token returns a cached token, fetching a new one when it is about to expire.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := t.cached(); ok {
		return token, nil
	}

	v, err, _ := t.group.Do("token", func() (any, error) {
		if token, ok := t.cached(); ok {
			return token, nil
		}
		return t.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *TokenSource) cached() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == "" || !t.now().Before(t.expiry.Add(-expiryLeeway)) {
		return "", false
	}
	return t.token, true
}

func (t *TokenSource) fetch(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.creds.ClientID},
		"client_secret": {t.creds.ClientSecret},
		"scope":         {graphScope},
	}
	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", t.loginURL, url.PathEscape(t.creds.TenantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", transportError(ctx, "token", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("token", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeDependency, "decode token response")
	}
	if tr.AccessToken == "" {
		return "", dErrors.New(dErrors.CodeDependency, "token response has no access_token")
	}

	now := t.now()
	expiry := now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.ExpiresIn <= 0 {
		expiry = tokenExpiry(tr.AccessToken, now)
	}

	t.mu.Lock()
	t.token, t.expiry = tr.AccessToken, expiry
	t.mu.Unlock()
	return tr.AccessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; Graph
// validates the token, we only need to know when to refresh it.
func tokenExpiry(raw string, now time.Time) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil || claims.ExpiresAt == nil {
		return now.Add(fallbackLifetime)
	}
	return claims.ExpiresAt.Time
}

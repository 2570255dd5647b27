package providers

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

	"golang.org/x/sync/singleflight"
)

// TokenEndpoint is the OAuth2 token path, appended to the configured
// inventory-provider base URL.
const TokenEndpoint = "/v1/security/oauth2/token"

// expiryMargin is how long before the provider-reported expiry a token is
// treated as stale. Refreshing early avoids racing the provider clock.
const expiryMargin = 30 * time.Second

// TokenSource caches an OAuth2 client-credentials token and refreshes it when
// stale. Concurrent refreshes collapse into a single upstream request.
type TokenSource struct {
	authURL string
	id      string
	secret  string
	client  *http.Client
	group   singleflight.Group

	mu      sync.Mutex
	tok     string
	expires time.Time
}

func NewTokenSource(authURL, id, secret string, client *http.Client) *TokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenSource{authURL: authURL, id: id, secret: secret, client: client}
}

// Token returns a bearer token, fetching a fresh one if the cached token is
// within expiryMargin of expiring.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := ts.cached(); ok {
		return tok, nil
	}
	v, err, _ := ts.group.Do("token", func() (interface{}, error) {
		if tok, ok := ts.cached(); ok {
			return tok, nil
		}
		return ts.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call fetches a new one. Used
// after a provider answers 401 despite a token we believed valid.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.tok = ""
	ts.expires = time.Time{}
	ts.mu.Unlock()
}

func (ts *TokenSource) cached() (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.tok != "" && time.Now().Before(ts.expires.Add(-expiryMargin)) {
		return ts.tok, true
	}
	return "", false
}

func (ts *TokenSource) fetch(ctx context.Context) (string, error) {
	if ts.id == "" || ts.secret == "" {
		return "", fmt.Errorf("%w: credentials missing", ErrAuth)
	}
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", ts.id)
	data.Set("client_secret", ts.secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%w: token endpoint returned %s: %s", ErrAuth, resp.Status, strings.TrimSpace(string(body)))
	}
	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrAuth, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned no access_token", ErrAuth)
	}
	ts.mu.Lock()
	ts.tok = tr.AccessToken
	ts.expires = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	ts.mu.Unlock()
	return tr.AccessToken, nil
}

package gigachat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// accessToken refresh happens slightly before the reported expiry so an
// in-flight request never carries a token that dies mid-call.
const tokenExpiryMargin = 30 * time.Second

// tokenSource caches the GigaChat OAuth bearer token and refreshes it on
// expiry. The token state is private to the client that owns it.
type tokenSource struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	authKey    string
	authURL    string
	scope      string
	httpClient *http.Client
}

func newTokenSource(config Config, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		authKey:    config.AuthKey,
		authURL:    config.AuthURL,
		scope:      config.Scope,
		httpClient: httpClient,
	}
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
}

// Token returns a valid bearer token, performing the OAuth exchange when
// the cached one is missing or expired.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiresAt.Add(-tokenExpiryMargin)) {
		return t.token, nil
	}

	if t.authKey == "" {
		return "", errors.New("GigaChat auth key is not configured")
	}

	form := url.Values{}
	form.Set("scope", t.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+t.authKey)
	req.Header.Set("RqUID", uuid.New().String())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("auth returned status %d: %s", resp.StatusCode, string(body))
	}

	var oauth oauthResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&oauth); decodeErr != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", decodeErr)
	}

	if oauth.AccessToken == "" {
		return "", errors.New("auth response contained no access token")
	}

	t.token = oauth.AccessToken
	t.expiresAt = time.UnixMilli(oauth.ExpiresAt)

	return t.token, nil
}

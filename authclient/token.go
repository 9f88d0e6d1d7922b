package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ExpirySkew is subtracted from a token's expiry so calls already in flight
	// do not race the real deadline.
	ExpirySkew = 60 * time.Second

	// DefaultTokenLifetime applies when neither the refresh response nor the
	// token itself states an expiry.
	DefaultTokenLifetime = 5 * time.Minute
)

// Token is a bearer credential.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

func (t Token) validAt(now time.Time) bool {
	return t.AccessToken != "" && now.Add(ExpirySkew).Before(t.ExpiresAt)
}

// Refresher obtains a fresh credential.
type Refresher interface {
	Refresh(ctx context.Context) (Token, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) (Token, error)

func (f RefresherFunc) Refresh(ctx context.Context) (Token, error) {
	return f(ctx)
}

// HTTPRefresher exchanges a refresh token for an access token at URL. A rotated
// refresh token in the response replaces the stored one.
type HTTPRefresher struct {
	URL        string
	HTTPClient *http.Client

	mu           sync.Mutex
	refreshToken string
	now          func() time.Time
}

// NewHTTPRefresher creates a refresher for the given endpoint and refresh token.
func NewHTTPRefresher(url, refreshToken string, httpClient *http.Client) *HTTPRefresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPRefresher{
		URL:          url,
		HTTPClient:   httpClient,
		refreshToken: refreshToken,
		now:          time.Now,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

func (r *HTTPRefresher) Refresh(ctx context.Context) (Token, error) {
	r.mu.Lock()
	current := r.refreshToken
	r.mu.Unlock()

	body, err := json.Marshal(refreshRequest{RefreshToken: current})
	if err != nil {
		return Token{}, fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return Token{}, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("failed to send refresh request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, newRemoteCallError(resp.StatusCode, raw)
	}

	var out refreshResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Token{}, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if out.AccessToken == "" {
		return Token{}, fmt.Errorf("refresh response has no access token")
	}

	if out.RefreshToken != "" {
		r.mu.Lock()
		r.refreshToken = out.RefreshToken
		r.mu.Unlock()
	}

	now := r.now()
	expiresAt := now.Add(DefaultTokenLifetime)
	if out.ExpiresIn > 0 {
		expiresAt = now.Add(time.Duration(out.ExpiresIn) * time.Second)
	} else if exp, ok := jwtExpiry(out.AccessToken); ok {
		expiresAt = exp
	}
	return Token{AccessToken: out.AccessToken, ExpiresAt: expiresAt}, nil
}

// jwtExpiry reads the exp claim. The signature is not verified.
func jwtExpiry(accessToken string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

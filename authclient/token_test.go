package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRefresher_UsesExpiresIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rt-1", req.RefreshToken)
		_, _ = w.Write([]byte(`{"accessToken":"at-1","expiresIn":300}`))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewHTTPRefresher(srv.URL, "rt-1", nil)
	r.now = func() time.Time { return now }

	tok, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, now.Add(5*time.Minute), tok.ExpiresAt)
}

func TestHTTPRefresher_ReadsJWTExpiry(t *testing.T) {
	exp := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "svc-onboarding",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(refreshResponse{AccessToken: signed})
	}))
	defer srv.Close()

	tok, err := NewHTTPRefresher(srv.URL, "rt", nil).Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, exp.Equal(tok.ExpiresAt), "expected %v, got %v", exp, tok.ExpiresAt)
}

func TestHTTPRefresher_OpaqueTokenGetsDefaultLifetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"opaque"}`))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewHTTPRefresher(srv.URL, "rt", nil)
	r.now = func() time.Time { return now }

	tok, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(DefaultTokenLifetime), tok.ExpiresAt)
}

func TestHTTPRefresher_RotatesRefreshToken(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen = append(seen, req.RefreshToken)
		_, _ = w.Write([]byte(`{"accessToken":"at","refreshToken":"rt-next","expiresIn":60}`))
	}))
	defer srv.Close()

	r := NewHTTPRefresher(srv.URL, "rt-first", nil)
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"rt-first", "rt-next"}, seen)
}

func TestHTTPRefresher_RejectedRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPRefresher(srv.URL, "expired", nil).Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.EqualError(t, err, "invalid_grant")
}

func TestTokenValidAt(t *testing.T) {
	now := time.Now()
	assert.False(t, Token{}.validAt(now))
	assert.False(t, Token{AccessToken: "x", ExpiresAt: now.Add(59 * time.Second)}.validAt(now))
	assert.True(t, Token{AccessToken: "x", ExpiresAt: now.Add(61 * time.Second)}.validAt(now))
}

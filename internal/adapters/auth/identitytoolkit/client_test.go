package identitytoolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestClient(server *httptest.Server, now time.Time) *Client {
	client := NewClient(API{
		IdentityBaseURL:    server.URL,
		SecureTokenBaseURL: server.URL,
		APIKey:             "api-key",
	}, zerolog.Nop())
	client.HTTPClient = server.Client()
	client.Clock = fixedClock{now: now}
	return client
}

func TestSignInAnonymouslyParsesIdentity(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	token := idToken(t, jwt.MapClaims{
		"user_id":  "anon-uid",
		"sub":      "anon-uid",
		"firebase": map[string]any{"sign_in_provider": "anonymous"},
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/accounts:signUp", r.URL.Path)
		assert.Equal(t, "api-key", r.URL.Query().Get("key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["returnSecureToken"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"idToken":%q,"refreshToken":"refresh-1","expiresIn":"3600","localId":"anon-uid"}`, token)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server, now)
	identity, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.UserID("anon-uid"), identity.UserID)
	assert.True(t, identity.Anonymous)
	assert.Equal(t, token, identity.IDToken)
	assert.Equal(t, "refresh-1", identity.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), identity.ExpiresAt)
	assert.Equal(t, identity, client.Current())
}

func TestSignInWithCustomTokenSendsToken(t *testing.T) {
	t.Parallel()

	token := idToken(t, jwt.MapClaims{"sub": "user-42"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithCustomToken", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "custom-token", body["token"])

		_, _ = fmt.Fprintf(w, `{"idToken":%q,"refreshToken":"refresh-2","expiresIn":"3600"}`, token)
	}))
	t.Cleanup(server.Close)

	identity, err := newTestClient(server, time.Now()).SignInWithCustomToken(context.Background(), "custom-token")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("user-42"), identity.UserID)
	assert.False(t, identity.Anonymous)
}

func TestSignInWithCustomTokenReportsRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_CUSTOM_TOKEN"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := newTestClient(server, time.Now()).SignInWithCustomToken(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CUSTOM_TOKEN")
	assert.Contains(t, err.Error(), "sign in with custom token")
}

func TestRefreshPostsFormAndFallsBackToUserID(t *testing.T) {
	t.Parallel()

	token := idToken(t, jwt.MapClaims{"iss": "test"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))

		_, _ = fmt.Fprintf(w, `{"id_token":%q,"refresh_token":"refresh-3","expires_in":"3600","user_id":"from-body"}`, token)
	}))
	t.Cleanup(server.Close)

	identity, err := newTestClient(server, time.Now()).Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("from-body"), identity.UserID)
	assert.Equal(t, "refresh-3", identity.RefreshToken)
}

func TestMissingAPIKeyFailsWithoutRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server, time.Now())
	client.API.APIKey = ""

	_, err := client.SignInAnonymously(context.Background())
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, calls.Load())
}

func TestTokenSourceRefreshesNearExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	first := idToken(t, jwt.MapClaims{"user_id": "uid"})
	second := idToken(t, jwt.MapClaims{"user_id": "uid", "iat": 2})

	var refreshes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/accounts:signUp":
			_, _ = fmt.Fprintf(w, `{"idToken":%q,"refreshToken":"r1","expiresIn":"30"}`, first)
		case "/v1/token":
			refreshes.Add(1)
			_, _ = fmt.Fprintf(w, `{"id_token":%q,"refresh_token":"r2","expires_in":"3600"}`, second)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server, now)
	_, err := client.SignInAnonymously(context.Background())
	require.NoError(t, err)

	token, err := tokenSource{client: client}.Token()
	require.NoError(t, err)
	assert.Equal(t, second, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestTokenSourceRequiresSignIn(t *testing.T) {
	t.Parallel()

	client := NewClient(API{APIKey: "k"}, zerolog.Nop())
	_, err := client.TokenSource().Token()
	require.ErrorIs(t, err, ErrNotSignedIn)
}

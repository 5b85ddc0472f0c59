package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	DefaultIdentityBaseURL    = "https://identitytoolkit.googleapis.com/"
	DefaultSecureTokenBaseURL = "https://securetoken.googleapis.com/"

	signInWithCustomTokenPath = "v1/accounts:signInWithCustomToken"
	signUpPath                = "v1/accounts:signUp"
	refreshTokenPath          = "v1/token"

	maxResponseBytes = 1 << 20
)

var ErrMissingAPIKey = errors.New("firebase api key is required")

type API struct {
	IdentityBaseURL    string
	SecureTokenBaseURL string
	APIKey             string
}

// Client signs users in against the Firebase Identity Toolkit REST API and
// remembers the latest identity for TokenSource.
type Client struct {
	API            API
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Clock          ports.Clock
	Logger         zerolog.Logger

	mu      sync.Mutex
	current domain.Identity
}

var _ ports.AuthProvider = (*Client)(nil)

func NewClient(api API, logger zerolog.Logger) *Client {
	if api.IdentityBaseURL == "" {
		api.IdentityBaseURL = DefaultIdentityBaseURL
	}
	if api.SecureTokenBaseURL == "" {
		api.SecureTokenBaseURL = DefaultSecureTokenBaseURL
	}

	return &Client{
		API:    api,
		Clock:  ports.SystemClock{},
		Logger: logger.With().Str("component", "identitytoolkit").Logger(),
	}
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignInWithCustomToken(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, errors.New("custom token is required")
	}

	body := map[string]any{"token": token, "returnSecureToken": true}
	var payload signInResponse
	if err := c.postJSON(ctx, c.API.IdentityBaseURL, signInWithCustomTokenPath, body, &payload); err != nil {
		return domain.Identity{}, fmt.Errorf("sign in with custom token: %w", err)
	}

	return c.remember(payload.IDToken, payload.RefreshToken, payload.ExpiresIn, payload.LocalID)
}

func (c *Client) SignInAnonymously(ctx context.Context) (domain.Identity, error) {
	body := map[string]any{"returnSecureToken": true}
	var payload signInResponse
	if err := c.postJSON(ctx, c.API.IdentityBaseURL, signUpPath, body, &payload); err != nil {
		return domain.Identity{}, fmt.Errorf("sign in anonymously: %w", err)
	}

	return c.remember(payload.IDToken, payload.RefreshToken, payload.ExpiresIn, payload.LocalID)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.Identity, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.Identity{}, errors.New("refresh token is required")
	}

	values := url.Values{}
	values.Set("grant_type", "refresh_token")
	values.Set("refresh_token", refreshToken)

	var payload refreshResponse
	if err := c.post(ctx, c.API.SecureTokenBaseURL, refreshTokenPath, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()), &payload); err != nil {
		return domain.Identity{}, fmt.Errorf("refresh session: %w", err)
	}

	return c.remember(payload.IDToken, payload.RefreshToken, payload.ExpiresIn, payload.UserID)
}

// Current returns the identity from the latest successful call.
func (c *Client) Current() domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *Client) remember(idToken, refreshToken, expiresIn, fallbackUID string) (domain.Identity, error) {
	identity, err := identityFromToken(idToken, fallbackUID)
	if err != nil {
		return domain.Identity{}, err
	}
	identity.RefreshToken = refreshToken
	if seconds, err := strconv.ParseInt(expiresIn, 10, 64); err == nil && seconds > 0 {
		identity.ExpiresAt = c.clock().Now().Add(time.Duration(seconds) * time.Second)
	}

	c.mu.Lock()
	c.current = identity
	c.mu.Unlock()

	c.Logger.Debug().Str("user_id", string(identity.UserID)).Bool("anonymous", identity.Anonymous).Msg("token issued")
	return identity, nil
}

// identityFromToken reads the user id from the ID token claims. The token
// is not verified here; the document store verifies it on every request.
func identityFromToken(idToken, fallbackUID string) (domain.Identity, error) {
	if idToken == "" {
		return domain.Identity{}, errors.New("response missing id token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return domain.Identity{}, fmt.Errorf("parse id token: %w", err)
	}

	uid, _ := claims["user_id"].(string)
	if uid == "" {
		uid, _ = claims.GetSubject()
	}
	if uid == "" {
		uid = fallbackUID
	}
	if uid == "" {
		return domain.Identity{}, errors.New("id token has no user id")
	}

	anonymous := false
	if firebase, ok := claims["firebase"].(map[string]any); ok {
		provider, _ := firebase["sign_in_provider"].(string)
		anonymous = provider == "anonymous"
	}

	return domain.Identity{
		UserID:    domain.UserID(uid),
		Anonymous: anonymous,
		IDToken:   idToken,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, baseURL, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.post(ctx, baseURL, path, "application/json", bytes.NewReader(encoded), out)
}

func (c *Client) post(ctx context.Context, baseURL, path, contentType string, body io.Reader, out any) error {
	if c.API.APIKey == "" {
		return ErrMissingAPIKey
	}

	endpoint, err := buildAPIURL(baseURL, path, c.API.APIKey)
	if err != nil {
		return err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.New(decodeAPIError(resp))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) clock() ports.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return ports.SystemClock{}
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func decodeAPIError(resp *http.Response) string {
	var apiErr apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
}

func buildAPIURL(baseURL string, path string, apiKey string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	query := endpoint.Query()
	query.Set("key", apiKey)
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

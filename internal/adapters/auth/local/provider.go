// Package local issues identities without a network round trip, for the
// file and memory document stores.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	refreshPrefix = "local:"
	tokenLifetime = time.Hour
	issuer        = "botctl-local"
)

var ErrInvalidRefreshToken = errors.New("invalid local refresh token")

type Provider struct {
	clock  ports.Clock
	newID  func() string
	secret []byte
}

var _ ports.AuthProvider = (*Provider)(nil)

func NewProvider(clock ports.Clock) *Provider {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Provider{
		clock:  clock,
		newID:  uuid.NewString,
		secret: []byte(uuid.NewString()),
	}
}

// SignInWithCustomToken accepts any well-formed JWT and uses its uid,
// user_id or sub claim as the identity. Signatures are not checked.
func (p *Provider) SignInWithCustomToken(ctx context.Context, token string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return domain.Identity{}, fmt.Errorf("parse custom token: %w", err)
	}

	uid := claimString(claims, "uid")
	if uid == "" {
		uid = claimString(claims, "user_id")
	}
	if uid == "" {
		uid, _ = claims.GetSubject()
	}
	if uid == "" {
		return domain.Identity{}, errors.New("custom token has no uid claim")
	}

	return p.issue(domain.UserID(uid), false)
}

func (p *Provider) SignInAnonymously(ctx context.Context) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	return p.issue(domain.UserID(p.newID()), true)
}

// Refresh resumes the identity encoded in a refresh token issued by this
// provider, so anonymous ids survive restarts.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	rest, ok := strings.CutPrefix(refreshToken, refreshPrefix)
	if !ok {
		return domain.Identity{}, ErrInvalidRefreshToken
	}
	kind, uid, ok := strings.Cut(rest, ":")
	if !ok || uid == "" || (kind != "anon" && kind != "user") {
		return domain.Identity{}, ErrInvalidRefreshToken
	}

	return p.issue(domain.UserID(uid), kind == "anon")
}

func (p *Provider) issue(uid domain.UserID, anonymous bool) (domain.Identity, error) {
	now := p.clock.Now()
	expires := now.Add(tokenLifetime)

	provider := "custom"
	kind := "user"
	if anonymous {
		provider = "anonymous"
		kind = "anon"
	}

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":      issuer,
		"sub":      string(uid),
		"user_id":  string(uid),
		"iat":      now.Unix(),
		"exp":      expires.Unix(),
		"firebase": map[string]any{"sign_in_provider": provider},
	}).SignedString(p.secret)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("sign id token: %w", err)
	}

	return domain.Identity{
		UserID:       uid,
		Anonymous:    anonymous,
		IDToken:      idToken,
		RefreshToken: refreshPrefix + kind + ":" + string(uid),
		ExpiresAt:    expires,
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}

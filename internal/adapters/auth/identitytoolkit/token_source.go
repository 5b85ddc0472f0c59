package identitytoolkit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

const refreshLeeway = time.Minute

var ErrNotSignedIn = errors.New("no signed-in identity")

type tokenSource struct {
	client *Client
}

// TokenSource presents the current ID token as an OAuth2 bearer token and
// refreshes it shortly before it expires.
func (c *Client) TokenSource() oauth2.TokenSource {
	return oauth2.ReuseTokenSourceWithExpiry(nil, tokenSource{client: c}, refreshLeeway)
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	identity := s.client.Current()
	if identity.IDToken == "" {
		return nil, ErrNotSignedIn
	}

	now := s.client.clock().Now()
	if !identity.ExpiresAt.IsZero() && now.Add(refreshLeeway).After(identity.ExpiresAt) {
		if identity.RefreshToken == "" {
			return nil, errors.New("id token expired and no refresh token available")
		}
		refreshed, err := s.client.Refresh(context.Background(), identity.RefreshToken)
		if err != nil {
			return nil, err
		}
		identity = refreshed
	}

	return &oauth2.Token{
		AccessToken: identity.IDToken,
		TokenType:   "Bearer",
		Expiry:      identity.ExpiresAt,
	}, nil
}

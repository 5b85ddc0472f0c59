package ports

import (
	"context"

	"github.com/bnema/botctl/internal/domain"
)

type AuthProvider interface {
	SignInWithCustomToken(ctx context.Context, token string) (domain.Identity, error)
	SignInAnonymously(ctx context.Context) (domain.Identity, error)
	Refresh(ctx context.Context, refreshToken string) (domain.Identity, error)
}

type CredentialStore interface {
	Load(ctx context.Context, key string) (domain.Credential, error)
	Save(ctx context.Context, key string, credential domain.Credential) error
	Delete(ctx context.Context, key string) error
}

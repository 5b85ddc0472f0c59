package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/botctl/internal/adapters/credentials/file"
	passstore "github.com/bnema/botctl/internal/adapters/credentials/pass"
	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
)

type Store struct {
	primary  ports.CredentialStore
	fallback ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential store is nil")
	errNilFallbackStore = errors.New("fallback credential store is nil")
)

func NewStore(primary ports.CredentialStore, fallback ports.CredentialStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.CredentialStore, fallback ports.CredentialStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(fileRoot))
}

// Save writes the session credential to the primary backend and drops any
// older copy left in the fallback. The fallback only receives the credential
// while the primary cannot store it.
func (s *Store) Save(ctx context.Context, key string, credential domain.Credential) error {
	err := s.primary.Save(ctx, key, credential)
	if err == nil {
		s.dropFallbackCopy(ctx, key)
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Save(ctx, key, credential); fallbackErr != nil {
		return fmt.Errorf("save credential %q: primary: %w; fallback: %w", key, err, fallbackErr)
	}
	return nil
}

// Load returns the primary credential when there is one. A credential found
// only in the fallback is moved to the primary when the primary is reachable
// and simply lacks it.
func (s *Store) Load(ctx context.Context, key string) (domain.Credential, error) {
	credential, err := s.primary.Load(ctx, key)
	if err == nil {
		return credential, nil
	}
	if shouldSkipFallback(err) {
		return domain.Credential{}, err
	}

	fallbackCredential, fallbackErr := s.fallback.Load(ctx, key)
	if fallbackErr != nil {
		return domain.Credential{}, fmt.Errorf("load credential %q: primary: %w; fallback: %w", key, err, fallbackErr)
	}

	if errors.Is(err, domain.ErrCredentialNotFound) {
		if promoteErr := s.primary.Save(ctx, key, fallbackCredential); promoteErr == nil {
			s.dropFallbackCopy(ctx, key)
		}
	}
	return fallbackCredential, nil
}

func (s *Store) dropFallbackCopy(ctx context.Context, key string) {
	// errors are ignored, Delete clears both backends
	_ = s.fallback.Delete(ctx, key)
}

// Delete removes the credential from both backends. A missing pass binary
// is not an error when the file copy was removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err == nil:
		return fmt.Errorf("delete credential %q: fallback: %w", key, fallbackErr)
	case fallbackErr == nil:
		if errors.Is(err, passstore.ErrUnavailable) {
			return nil
		}
		return fmt.Errorf("delete credential %q: primary: %w", key, err)
	default:
		return fmt.Errorf("delete credential %q: primary: %w; fallback: %w", key, err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

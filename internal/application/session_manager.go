package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
)

type SessionManager struct {
	provider      ports.AuthProvider
	credentials   ports.CredentialStore
	credentialKey string
	initialToken  string
	clock         ports.Clock
	logger        zerolog.Logger

	mu          sync.Mutex
	session     domain.Session
	subscribers map[int]chan domain.Session
	nextSubID   int
}

type SessionManagerConfig struct {
	Provider ports.AuthProvider
	// Credentials caches the refresh token between runs. Optional.
	Credentials ports.CredentialStore
	// CredentialKey names the cached credential, one per application.
	CredentialKey string
	// InitialToken is the pre-supplied custom token read at process start.
	InitialToken string
	Clock        ports.Clock
	Logger       zerolog.Logger
}

func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionManager{
		provider:      cfg.Provider,
		credentials:   cfg.Credentials,
		credentialKey: cfg.CredentialKey,
		initialToken:  strings.TrimSpace(cfg.InitialToken),
		clock:         clock,
		logger:        cfg.Logger.With().Str("component", "session").Logger(),
		session:       domain.Session{State: domain.AuthStateUnauthenticated},
		subscribers:   map[int]chan domain.Session{},
	}
}

// Begin authenticates with the pre-supplied token when one was configured,
// otherwise resumes a cached credential or signs in anonymously.
func (m *SessionManager) Begin(ctx context.Context) (domain.Session, error) {
	if m.provider == nil {
		err := fmt.Errorf("begin session: %w", domain.ErrProviderUnavailable)
		m.transition(domain.Session{State: domain.AuthStateFailed, Err: err})
		return m.Current(), err
	}

	m.transition(domain.Session{State: domain.AuthStateAuthenticating})

	identity, err := m.authenticate(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrAuthFailure, err)
		m.logger.Warn().Err(err).Msg("authentication failed")
		m.transition(domain.Session{State: domain.AuthStateFailed, Err: err})
		return m.Current(), err
	}

	m.rememberCredential(ctx, identity)
	m.logger.Debug().Str("user_id", string(identity.UserID)).Bool("anonymous", identity.Anonymous).Msg("authenticated")
	m.transition(domain.Session{State: domain.AuthStateAuthenticated, Identity: &identity})

	return m.Current(), nil
}

func (m *SessionManager) authenticate(ctx context.Context) (domain.Identity, error) {
	if m.initialToken != "" {
		identity, err := m.provider.SignInWithCustomToken(ctx, m.initialToken)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("sign in with custom token: %w", err)
		}
		return identity, nil
	}

	if identity, ok := m.resume(ctx); ok {
		return identity, nil
	}

	identity, err := m.provider.SignInAnonymously(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("sign in anonymously: %w", err)
	}
	return identity, nil
}

func (m *SessionManager) resume(ctx context.Context) (domain.Identity, bool) {
	if m.credentials == nil || m.credentialKey == "" {
		return domain.Identity{}, false
	}

	credential, err := m.credentials.Load(ctx, m.credentialKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			m.logger.Warn().Err(err).Msg("load cached credential")
		}
		return domain.Identity{}, false
	}
	if credential.RefreshToken == "" {
		return domain.Identity{}, false
	}

	identity, err := m.provider.Refresh(ctx, credential.RefreshToken)
	if err != nil {
		m.logger.Info().Err(err).Msg("cached credential rejected, discarding")
		if deleteErr := m.credentials.Delete(ctx, m.credentialKey); deleteErr != nil {
			m.logger.Warn().Err(deleteErr).Msg("delete rejected credential")
		}
		return domain.Identity{}, false
	}
	if identity.UserID == "" {
		identity.UserID = credential.UserID
	}
	identity.Anonymous = identity.Anonymous || credential.Anonymous

	return identity, true
}

func (m *SessionManager) rememberCredential(ctx context.Context, identity domain.Identity) {
	if m.credentials == nil || m.credentialKey == "" || identity.RefreshToken == "" {
		return
	}

	err := m.credentials.Save(ctx, m.credentialKey, domain.Credential{
		UserID:       identity.UserID,
		RefreshToken: identity.RefreshToken,
		Anonymous:    identity.Anonymous,
		SavedAt:      m.clock.Now(),
	})
	if err != nil {
		m.logger.Warn().Err(err).Msg("cache credential")
	}
}

// SignOut drops the identity and forgets the cached credential.
func (m *SessionManager) SignOut(ctx context.Context) error {
	var err error
	if m.credentials != nil && m.credentialKey != "" {
		if deleteErr := m.credentials.Delete(ctx, m.credentialKey); deleteErr != nil {
			err = fmt.Errorf("delete cached credential: %w", deleteErr)
		}
	}

	m.transition(domain.Session{State: domain.AuthStateUnauthenticated})
	return err
}

func (m *SessionManager) Current() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session
}

// Changes streams every session transition, starting with the current one.
// Slow readers only see the latest session.
func (m *SessionManager) Changes() (<-chan domain.Session, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan domain.Session, 1)
	ch <- m.session
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers, id)
			close(ch)
		})
	}
}

func (m *SessionManager) transition(session domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = session
	for _, ch := range m.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- session
	}
}

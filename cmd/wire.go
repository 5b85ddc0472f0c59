package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/botctl/internal/adapters/auth/identitytoolkit"
	"github.com/bnema/botctl/internal/adapters/auth/local"
	chainstore "github.com/bnema/botctl/internal/adapters/credentials/chain"
	filecreds "github.com/bnema/botctl/internal/adapters/credentials/file"
	filestore "github.com/bnema/botctl/internal/adapters/docstore/file"
	firestorestore "github.com/bnema/botctl/internal/adapters/docstore/firestore"
	"github.com/bnema/botctl/internal/adapters/docstore/memory"
	"github.com/bnema/botctl/internal/application"
	"github.com/bnema/botctl/internal/config"
	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const readyTimeout = 15 * time.Second

type app struct {
	cfg         config.Config
	logger      zerolog.Logger
	credentials ports.CredentialStore
	clock       ports.Clock
	now         func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	if cfg.File != "" {
		logger.Debug().Str("file", cfg.File).Msg("config loaded")
	}

	credentials, err := wireCredentials(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		credentials: credentials,
		clock:       ports.SystemClock{},
		now:         time.Now,
	}, nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func wireCredentials(cfg config.Config) (ports.CredentialStore, error) {
	switch cfg.CredentialBackend {
	case config.CredentialsFile:
		return filecreds.NewStore(cfg.CredentialPath), nil
	default:
		store, err := chainstore.NewPassFirstWithFileFallback(cfg.CredentialPath)
		if err != nil {
			return nil, fmt.Errorf("wire credential store chain: %w", err)
		}
		return store, nil
	}
}

func (a *app) credentialKey() string {
	return "botctl/" + a.cfg.AppID + "/session"
}

// openBackend pairs the document store with the auth provider that can
// authorize against it.
func (a *app) openBackend(ctx context.Context) (ports.AuthProvider, ports.DocumentStore, func() error, error) {
	switch a.cfg.StoreBackend {
	case config.StoreMemory:
		store := memory.NewStore()
		return local.NewProvider(a.clock), store, store.Close, nil
	case config.StoreFirestore:
		client := identitytoolkit.NewClient(identitytoolkit.API{APIKey: a.cfg.FirebaseAPIKey}, a.logger)
		store, err := firestorestore.NewStore(ctx, firestorestore.Options{
			ProjectID:   a.cfg.FirebaseProjectID,
			TokenSource: client.TokenSource(),
			Logger:      a.logger,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("wire firestore store: %w", err)
		}
		// Without an API key there is no provider; sign-in reports it.
		if a.cfg.FirebaseAPIKey == "" {
			a.logger.Warn().Str("key", config.KeyFirebaseAPIKey).Msg("auth provider not configured")
			return nil, store, store.Close, nil
		}
		return client, store, store.Close, nil
	default:
		store, err := filestore.NewStore(filestore.Options{Root: a.cfg.StorePath, Logger: a.logger})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("wire file store: %w", err)
		}
		return local.NewProvider(a.clock), store, func() error { return nil }, nil
	}
}

// runtime is one running session: the engine goroutine, its session source
// and the operations bound to it.
type runtime struct {
	sessions  *application.SessionManager
	engine    *application.SyncEngine
	mutations *application.MutationQueue
	notifier  *application.NotificationService
	logger    zerolog.Logger

	stop func()
}

func (a *app) start(ctx context.Context, display ports.Display) (*runtime, error) {
	provider, store, closeStore, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	notifier := application.NewNotificationService(display, a.cfg.NotifyDuration)
	sessions := application.NewSessionManager(application.SessionManagerConfig{
		Provider:      provider,
		Credentials:   a.credentials,
		CredentialKey: a.credentialKey(),
		InitialToken:  a.cfg.AuthToken,
		Clock:         a.clock,
		Logger:        a.logger,
	})
	engine := application.NewSyncEngine(store, notifier, a.cfg.AppID, a.logger)
	mutations := application.NewMutationQueue(engine, ports.NewULIDGenerator(), a.clock, notifier, a.logger)

	runCtx, cancel := context.WithCancel(ctx)
	changes, unsubscribe := sessions.Changes()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := engine.Run(runCtx, changes); err != nil {
			a.logger.Error().Err(err).Msg("sync engine stopped")
		}
	}()

	return &runtime{
		sessions:  sessions,
		engine:    engine,
		mutations: mutations,
		notifier:  notifier,
		logger:    a.logger,
		stop: func() {
			cancel()
			<-done
			unsubscribe()
			notifier.Close()
			if err := closeStore(); err != nil {
				a.logger.Warn().Err(err).Msg("close document store")
			}
		},
	}, nil
}

// connectSteps sign in and then wait for the first snapshot of the
// session's document.
func (r *runtime) connectSteps() []step {
	return []step{
		{label: "Signing in", run: func(ctx context.Context) error {
			_, err := r.sessions.Begin(ctx)
			return err
		}},
		{label: "Loading bot config", run: func(ctx context.Context) error {
			readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
			defer cancel()

			if err := r.engine.WaitReady(readyCtx); err != nil {
				return fmt.Errorf("load bot config: %w", err)
			}
			return nil
		}},
	}
}

// flushStep waits for the writes issued by the command before the process
// exits.
func (r *runtime) flushStep() step {
	return step{label: "Saving changes", run: func(ctx context.Context) error {
		flushCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		defer cancel()

		if err := r.engine.Flush(flushCtx); err != nil {
			return fmt.Errorf("flush writes: %w", err)
		}
		return nil
	}}
}

// connect runs the connect steps without a spinner, for callers that own
// the terminal.
func (r *runtime) connect(ctx context.Context) error {
	for _, s := range r.connectSteps() {
		if err := s.run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *runtime) flush(ctx context.Context) error {
	return r.flushStep().run(ctx)
}

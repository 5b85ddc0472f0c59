package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
)

const writeQueueSize = 256

var errEngineRunning = errors.New("sync engine already running")

// Mutation edits the local config in place and reports the top-level fields
// it changed. It runs on the engine loop.
type Mutation func(cfg *domain.BotConfig) ([]domain.Field, error)

type pendingWrite struct {
	path    string
	payload map[string]any
	reason  string
	barrier chan struct{}
}

// SyncEngine keeps the local copy of one session's config document in step
// with the document store. Everything from runCtx down is owned by the Run
// goroutine and only touched through requests.
type SyncEngine struct {
	store    ports.DocumentStore
	notifier ports.Notifier
	appID    string
	logger   zerolog.Logger

	requests chan func()
	done     chan struct{}
	started  atomic.Bool

	watchMu     sync.Mutex
	watchers    map[int]chan domain.BotConfig
	nextWatcher int

	runCtx       context.Context
	writeQ       chan pendingWrite
	session      domain.Session
	state        domain.BotConfig
	path         string
	sub          ports.Subscription
	bootstrapped bool
	ready        chan struct{}
	readyClosed  bool
	readyErr     error
}

func NewSyncEngine(store ports.DocumentStore, notifier ports.Notifier, appID string, logger zerolog.Logger) *SyncEngine {
	return &SyncEngine{
		store:    store,
		notifier: notifier,
		appID:    appID,
		logger:   logger.With().Str("component", "sync").Logger(),
		requests: make(chan func()),
		done:     make(chan struct{}),
		watchers: map[int]chan domain.BotConfig{},
		writeQ:   make(chan pendingWrite, writeQueueSize),
		session:  domain.Session{State: domain.AuthStateUnauthenticated},
		state:    domain.DefaultBotConfig(),
		ready:    make(chan struct{}),
	}
}

// Run owns the local state until ctx is done. Sessions drive which document
// is subscribed; a closed sessions channel keeps the current subscription.
func (e *SyncEngine) Run(ctx context.Context, sessions <-chan domain.Session) error {
	if !e.started.CompareAndSwap(false, true) {
		return errEngineRunning
	}
	defer close(e.done)

	e.runCtx = ctx
	writerDone := make(chan struct{})
	go e.drainWrites(context.WithoutCancel(ctx), writerDone)
	defer func() {
		e.closeSubscription()
		close(e.writeQ)
		<-writerDone
	}()

	for {
		var snapshots <-chan ports.SnapshotEvent
		if e.sub != nil {
			snapshots = e.sub.Snapshots()
		}

		select {
		case <-ctx.Done():
			return nil
		case session, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			e.handleSession(session)
		case event, ok := <-snapshots:
			if !ok {
				e.logger.Warn().Str("path", e.path).Msg("subscription ended")
				e.sub = nil
				continue
			}
			e.handleSnapshot(event)
		case req := <-e.requests:
			req()
		}
	}
}

// Mutate applies mutation to the local state and queues a merge-write of the
// fields it changed. The write outcome is reported through the notifier.
func (e *SyncEngine) Mutate(ctx context.Context, mutation Mutation) error {
	var mutateErr error
	err := e.do(ctx, func() {
		if !e.session.Authenticated() || e.path == "" {
			mutateErr = domain.ErrNotAuthenticated
			return
		}

		fields, err := mutation(&e.state)
		if err != nil {
			mutateErr = err
			return
		}
		if len(fields) == 0 {
			return
		}

		e.publish()
		e.enqueueWrite(EncodeFields(e.state, fields...), "mutation")
	})
	if err != nil {
		return err
	}
	return mutateErr
}

func (e *SyncEngine) Snapshot(ctx context.Context) (domain.BotConfig, error) {
	var cfg domain.BotConfig
	err := e.do(ctx, func() {
		cfg = e.state.Clone()
	})
	return cfg, err
}

func (e *SyncEngine) Session(ctx context.Context) (domain.Session, error) {
	var session domain.Session
	err := e.do(ctx, func() {
		session = e.session
	})
	return session, err
}

// WaitReady blocks until the current subscription has delivered its first
// snapshot, or failed to open.
func (e *SyncEngine) WaitReady(ctx context.Context) error {
	var ready chan struct{}
	if err := e.do(ctx, func() { ready = e.ready }); err != nil {
		return err
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	var readyErr error
	if err := e.do(ctx, func() { readyErr = e.readyErr }); err != nil {
		return err
	}
	return readyErr
}

// Flush waits until every write queued before the call has completed.
func (e *SyncEngine) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if err := e.do(ctx, func() { e.writeQ <- pendingWrite{barrier: barrier} }); err != nil {
		return err
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch streams a copy of the local state after every change. Slow readers
// only see the latest state.
func (e *SyncEngine) Watch() (<-chan domain.BotConfig, func()) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	ch := make(chan domain.BotConfig, 1)
	id := e.nextWatcher
	e.nextWatcher++
	e.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.watchMu.Lock()
			defer e.watchMu.Unlock()
			delete(e.watchers, id)
			close(ch)
		})
	}
}

func (e *SyncEngine) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	req := func() {
		defer close(finished)
		fn()
	}

	select {
	case e.requests <- req:
	case <-e.done:
		return domain.ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return nil
}

func (e *SyncEngine) handleSession(session domain.Session) {
	previous := e.session
	e.session = session

	if !session.Authenticated() {
		if e.path != "" {
			e.logger.Debug().Str("path", e.path).Str("state", string(session.State)).Msg("closing subscription")
		}
		e.closeSubscription()
		e.path = ""
		e.state = domain.DefaultBotConfig()
		e.publish()
		return
	}

	if previous.Authenticated() && previous.UserID() == session.UserID() && e.sub != nil {
		return
	}

	e.openSubscription(session.UserID())
}

func (e *SyncEngine) openSubscription(userID domain.UserID) {
	e.closeSubscription()

	e.path = domain.ConfigPath(e.appID, userID)
	e.state = domain.DefaultBotConfig()
	e.bootstrapped = false
	if e.readyClosed {
		e.ready = make(chan struct{})
		e.readyClosed = false
	}
	e.readyErr = nil
	e.publish()

	sub, err := e.store.Subscribe(e.runCtx, e.path)
	if err != nil {
		err = fmt.Errorf("%w: subscribe %s: %w", domain.ErrSubscription, e.path, err)
		e.logger.Error().Err(err).Msg("open subscription")
		e.notifier.Notify(domain.ErrorNotice(fmt.Sprintf("Could not load bot config: %v", err)))
		e.markReady(err)
		return
	}

	e.logger.Debug().Str("path", e.path).Msg("subscribed")
	e.sub = sub
}

func (e *SyncEngine) closeSubscription() {
	if e.sub == nil {
		return
	}
	if err := e.sub.Close(); err != nil {
		e.logger.Warn().Err(err).Str("path", e.path).Msg("close subscription")
	}
	e.sub = nil
}

func (e *SyncEngine) handleSnapshot(event ports.SnapshotEvent) {
	if !e.session.Authenticated() {
		e.logger.Debug().Msg("snapshot before authentication suppressed")
		return
	}

	if event.Err != nil {
		err := fmt.Errorf("%w: %w", domain.ErrSubscription, event.Err)
		e.logger.Warn().Err(err).Str("path", e.path).Msg("snapshot error")
		e.notifier.Notify(domain.ErrorNotice(fmt.Sprintf("Sync error: %v", event.Err)))
		return
	}

	if !event.Exists {
		if !e.bootstrapped {
			e.bootstrapped = true
			e.logger.Info().Str("path", e.path).Msg("document missing, writing defaults")
			e.enqueueWrite(EncodeFields(domain.DefaultBotConfig(), domain.AllFields()...), "bootstrap")
		}
		e.markReady(nil)
		return
	}

	cfg, err := DecodeBotConfig(event.Data)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrSubscription, err)
		e.logger.Warn().Err(err).Str("path", e.path).Msg("decode snapshot")
		e.notifier.Notify(domain.ErrorNotice(fmt.Sprintf("Sync error: %v", err)))
		return
	}

	// Last snapshot wins, including over local edits whose writes have not
	// been reflected by the store yet.
	e.bootstrapped = false
	e.state = cfg
	e.markReady(nil)
	e.publish()
}

func (e *SyncEngine) markReady(err error) {
	if e.readyClosed {
		return
	}
	e.readyErr = err
	e.readyClosed = true
	close(e.ready)
}

func (e *SyncEngine) enqueueWrite(payload map[string]any, reason string) {
	e.writeQ <- pendingWrite{path: e.path, payload: payload, reason: reason}
}

// drainWrites issues queued writes one at a time so they reach the store in
// the order the operations were applied locally.
func (e *SyncEngine) drainWrites(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for w := range e.writeQ {
		if w.barrier != nil {
			close(w.barrier)
			continue
		}

		if err := e.store.Write(ctx, w.path, w.payload); err != nil {
			err = fmt.Errorf("%w: %w", domain.ErrWrite, err)
			e.logger.Warn().Err(err).Str("path", w.path).Str("reason", w.reason).Msg("persist")
			e.notifier.Notify(domain.ErrorNotice(fmt.Sprintf("Failed to save changes: %v", err)))
			continue
		}
		e.logger.Debug().Str("path", w.path).Str("reason", w.reason).Int("fields", len(w.payload)).Msg("persisted")
	}
}

func (e *SyncEngine) publish() {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	for _, ch := range e.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- e.state.Clone()
	}
}

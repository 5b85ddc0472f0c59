package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/botctl/internal/adapters/docstore/memory"
	"github.com/bnema/botctl/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAppID = "test-app"

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func mockAnyContext() interface{} {
	return mock.Anything
}

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequentialIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return fmt.Sprintf("id-%d", s.next)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *recordingNotifier) Notify(notice domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, notice)
}

func (r *recordingNotifier) all() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.Notice(nil), r.notices...)
}

func (r *recordingNotifier) last() domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == 0 {
		return domain.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func (r *recordingNotifier) errors() []domain.Notice {
	var out []domain.Notice
	for _, notice := range r.all() {
		if notice.Level == domain.NoticeError {
			out = append(out, notice)
		}
	}
	return out
}

func authenticatedSession(uid domain.UserID) domain.Session {
	return domain.Session{
		State:    domain.AuthStateAuthenticated,
		Identity: &domain.Identity{UserID: uid, Anonymous: true},
	}
}

// gatedStore records every write and can hold writes until released.
type gatedStore struct {
	*memory.Store

	mu     sync.Mutex
	gate   chan struct{}
	writes []map[string]any
}

func (g *gatedStore) Write(ctx context.Context, path string, fields map[string]any) error {
	g.mu.Lock()
	gate := g.gate
	g.writes = append(g.writes, fields)
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return g.Store.Write(ctx, path, fields)
}

func (g *gatedStore) hold() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gate = make(chan struct{})
}

func (g *gatedStore) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
}

func (g *gatedStore) recorded() []map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]map[string]any(nil), g.writes...)
}

type engineHarness struct {
	engine   *SyncEngine
	store    *memory.Store
	writes   *gatedStore
	notifier *recordingNotifier
	sessions chan domain.Session
}

// startEngine runs an engine against a fresh memory store until the test ends.
func startEngine(t *testing.T) *engineHarness {
	t.Helper()

	store := memory.NewStore()
	gated := &gatedStore{Store: store}
	notifier := &recordingNotifier{}
	h := &engineHarness{
		engine:   NewSyncEngine(gated, notifier, testAppID, zerolog.Nop()),
		store:    store,
		writes:   gated,
		notifier: notifier,
		sessions: make(chan domain.Session, 4),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx, h.sessions) }()

	t.Cleanup(func() {
		gated.release()
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Error("sync engine did not stop")
		}
		_ = store.Close()
	})
	return h
}

// signIn seeds the default document for uid, authenticates and waits until
// the engine has loaded it. No bootstrap write is issued.
func (h *engineHarness) signIn(t *testing.T, uid domain.UserID) string {
	t.Helper()

	path := domain.ConfigPath(testAppID, uid)
	if _, ok := h.store.Get(path); !ok {
		defaults := EncodeFields(domain.DefaultBotConfig(), domain.AllFields()...)
		require.NoError(t, h.store.Write(testContext(t), path, defaults))
	}
	h.authenticate(t, uid)
	return path
}

// signInFresh authenticates uid against a missing document and waits for the
// bootstrap write to finish.
func (h *engineHarness) signInFresh(t *testing.T, uid domain.UserID) string {
	t.Helper()

	h.authenticate(t, uid)
	require.NoError(t, h.engine.Flush(testContext(t)))
	return domain.ConfigPath(testAppID, uid)
}

func (h *engineHarness) authenticate(t *testing.T, uid domain.UserID) {
	t.Helper()

	h.sessions <- authenticatedSession(uid)
	ctx := testContext(t)
	require.Eventually(t, func() bool {
		session, err := h.engine.Session(ctx)
		return err == nil && session.UserID() == uid
	}, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, h.engine.WaitReady(ctx))
}

func (h *engineHarness) snapshot(t *testing.T) domain.BotConfig {
	t.Helper()

	cfg, err := h.engine.Snapshot(testContext(t))
	require.NoError(t, err)
	return cfg
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

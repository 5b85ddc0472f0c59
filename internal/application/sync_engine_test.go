package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/bnema/botctl/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func enqueue(url string) Mutation {
	return func(cfg *domain.BotConfig) ([]domain.Field, error) {
		return cfg.Enqueue(domain.Track{ID: domain.TrackID(url), SourceURL: url, Title: trackTitle(url)}), nil
	}
}

func toggle(cfg *domain.BotConfig) ([]domain.Field, error) {
	return cfg.ToggleOnline(), nil
}

func TestSyncEngineRejectsMutationsBeforeAuthentication(t *testing.T) {
	t.Parallel()

	h := startEngine(t)

	err := h.engine.Mutate(testContext(t), toggle)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Empty(t, h.writes.recorded())
	assert.Equal(t, domain.DefaultBotConfig(), h.snapshot(t))
}

func TestSyncEngineBootstrapsMissingDocument(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signInFresh(t, "u1")

	doc, ok := h.store.Get(path)
	require.True(t, ok)
	assert.Equal(t, false, doc["online"])
	assert.Empty(t, doc["queue"])
	assert.Empty(t, doc["socialAccounts"])
	assert.Empty(t, doc["recentUpdates"])
	assert.NotContains(t, doc, "currentTrack")

	writes := h.writes.recorded()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0], len(domain.AllFields()))
}

func TestSyncEngineBootstrapsOnlyOncePerSubscription(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	h.store.FailWrites(errors.New("offline"))
	path := h.signInFresh(t, "u1")

	h.store.Inject(path, ports.SnapshotEvent{Exists: false})
	h.store.Inject(path, ports.SnapshotEvent{Exists: false})
	h.store.Inject(path, ports.SnapshotEvent{Exists: true, Data: map[string]any{"online": true}})

	require.Eventually(t, func() bool { return h.snapshot(t).Online }, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, h.engine.Flush(testContext(t)))

	assert.Len(t, h.writes.recorded(), 1)
	require.Len(t, h.notifier.errors(), 1)
	assert.Contains(t, h.notifier.errors()[0].Text, "Failed to save changes")
	assert.Contains(t, h.notifier.errors()[0].Text, "offline")
}

func TestSyncEngineRebootstrapsDocumentDeletedAfterObserve(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")
	require.Empty(t, h.writes.recorded())

	h.store.Delete(path)

	require.Eventually(t, func() bool { return len(h.writes.recorded()) == 1 }, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, h.engine.Flush(testContext(t)))

	writes := h.writes.recorded()
	require.Len(t, writes, 1)
	assert.Len(t, writes[0], len(domain.AllFields()))

	doc, ok := h.store.Get(path)
	require.True(t, ok)
	assert.Equal(t, false, doc["online"])
}

func TestSyncEngineReconcilesByFullOverwrite(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")

	require.NoError(t, h.engine.Mutate(testContext(t), enqueue("https://a")))
	require.NoError(t, h.engine.Flush(testContext(t)))

	h.store.Inject(path, ports.SnapshotEvent{Exists: true, Data: map[string]any{
		"online": true,
		"socialAccounts": []any{
			map[string]any{"id": "a1", "platform": "twitch", "handleOrUrl": "streamer"},
		},
	}})

	require.Eventually(t, func() bool { return h.snapshot(t).Online }, 3*time.Second, 5*time.Millisecond)

	cfg := h.snapshot(t)
	assert.Nil(t, cfg.CurrentTrack)
	assert.Empty(t, cfg.Queue)
	assert.Empty(t, cfg.RecentUpdates)
	require.Len(t, cfg.SocialAccounts, 1)
	assert.Equal(t, domain.PlatformTwitch, cfg.SocialAccounts[0].Platform)
}

func TestSyncEngineDuplicateSnapshotsAreIdempotent(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")

	remote := map[string]any{
		"online":       true,
		"currentTrack": map[string]any{"id": "t1", "sourceUrl": "https://a", "title": "Track from https://a"},
	}
	h.store.Inject(path, ports.SnapshotEvent{Exists: true, Data: remote})
	require.Eventually(t, func() bool { return h.snapshot(t).Online }, 3*time.Second, 5*time.Millisecond)
	first := h.snapshot(t)

	h.store.Inject(path, ports.SnapshotEvent{Exists: true, Data: remote})
	h.store.Inject(path, ports.SnapshotEvent{Exists: true, Data: remote})
	require.NoError(t, h.engine.Flush(testContext(t)))

	assert.Equal(t, first, h.snapshot(t))
	assert.Empty(t, h.writes.recorded())
}

func TestSyncEngineSnapshotErrorKeepsState(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")

	require.NoError(t, h.engine.Mutate(testContext(t), toggle))
	require.NoError(t, h.engine.Flush(testContext(t)))
	require.Eventually(t, func() bool { return h.snapshot(t).Online }, 3*time.Second, 5*time.Millisecond)

	h.store.Inject(path, ports.SnapshotEvent{Err: errors.New("permission denied")})
	require.Eventually(t, func() bool { return len(h.notifier.errors()) == 1 }, 3*time.Second, 5*time.Millisecond)

	assert.Contains(t, h.notifier.errors()[0].Text, "Sync error: permission denied")
	assert.True(t, h.snapshot(t).Online)
}

func TestSyncEngineAppliesLocallyBeforeWriting(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")

	h.writes.hold()
	require.NoError(t, h.engine.Mutate(testContext(t), enqueue("https://a")))

	cfg := h.snapshot(t)
	require.Len(t, cfg.Queue, 1)
	doc, _ := h.store.Get(path)
	assert.Empty(t, doc["queue"])

	h.writes.release()
	require.NoError(t, h.engine.Flush(testContext(t)))
	doc, _ = h.store.Get(path)
	assert.Len(t, doc["queue"], 1)
}

func TestSyncEngineWritesOnlyChangedFieldsInOrder(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")

	h.writes.hold()
	for _, url := range []string{"https://a", "https://b", "https://c"} {
		require.NoError(t, h.engine.Mutate(testContext(t), enqueue(url)))
	}
	require.NoError(t, h.engine.Mutate(testContext(t), toggle))
	h.writes.release()
	require.NoError(t, h.engine.Flush(testContext(t)))

	writes := h.writes.recorded()
	require.Len(t, writes, 4)
	for i, write := range writes[:3] {
		require.Len(t, write, 1)
		assert.Len(t, write["queue"], i+1)
	}
	assert.Equal(t, map[string]any{"online": true}, writes[3])

	doc, _ := h.store.Get(path)
	assert.Len(t, doc["queue"], 3)
	assert.Equal(t, true, doc["online"])
}

func TestSyncEngineWriteFailureIsNotRolledBack(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	h.signIn(t, "u1")
	h.store.FailWrites(errors.New("quota exceeded"))

	require.NoError(t, h.engine.Mutate(testContext(t), toggle))
	require.NoError(t, h.engine.Flush(testContext(t)))

	assert.True(t, h.snapshot(t).Online)
	require.Len(t, h.notifier.errors(), 1)
	assert.Contains(t, h.notifier.errors()[0].Text, "quota exceeded")
}

func TestSyncEngineMovesSubscriptionOnIdentityChange(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	first := h.signIn(t, "u1")
	require.NoError(t, h.engine.Mutate(testContext(t), toggle))
	require.NoError(t, h.engine.Flush(testContext(t)))

	second := h.signIn(t, "u2")

	assert.NotEqual(t, first, second)
	assert.Equal(t, 0, h.store.Subscribers(first))
	assert.Equal(t, 1, h.store.Subscribers(second))
	assert.False(t, h.snapshot(t).Online)

	doc, _ := h.store.Get(first)
	assert.Equal(t, true, doc["online"])
}

func TestSyncEngineSignOutClosesSubscription(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signIn(t, "u1")
	require.NoError(t, h.engine.Mutate(testContext(t), toggle))
	require.NoError(t, h.engine.Flush(testContext(t)))

	h.sessions <- domain.Session{State: domain.AuthStateUnauthenticated}
	require.Eventually(t, func() bool { return h.store.Subscribers(path) == 0 }, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.DefaultBotConfig(), h.snapshot(t))
	assert.ErrorIs(t, h.engine.Mutate(testContext(t), toggle), domain.ErrNotAuthenticated)
}

func TestSyncEngineSameIdentityKeepsSubscription(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	path := h.signInFresh(t, "u1")
	h.authenticate(t, "u1")
	require.NoError(t, h.engine.Flush(testContext(t)))

	assert.Equal(t, 1, h.store.Subscribers(path))
	assert.Len(t, h.writes.recorded(), 1)
}

func TestSyncEngineWaitReadyReportsSubscribeFailure(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	require.NoError(t, h.store.Close())

	h.sessions <- authenticatedSession("u1")
	ctx := testContext(t)
	require.Eventually(t, func() bool {
		session, err := h.engine.Session(ctx)
		return err == nil && session.Authenticated()
	}, 3*time.Second, 5*time.Millisecond)

	err := h.engine.WaitReady(ctx)
	require.ErrorIs(t, err, domain.ErrSubscription)
	require.Len(t, h.notifier.errors(), 1)
	assert.Contains(t, h.notifier.errors()[0].Text, "Could not load bot config")
}

func TestSyncEngineWatchDeliversLatestState(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	h.signIn(t, "u1")

	updates, stop := h.engine.Watch()
	defer stop()

	h.writes.hold()
	require.NoError(t, h.engine.Mutate(testContext(t), toggle))

	select {
	case cfg := <-updates:
		assert.True(t, cfg.Online)
	case <-time.After(3 * time.Second):
		t.Fatal("no state delivered")
	}
}

func TestSyncEngineRunOnlyOnce(t *testing.T) {
	t.Parallel()

	h := startEngine(t)
	require.Eventually(t, func() bool {
		_, err := h.engine.Session(testContext(t))
		return err == nil
	}, 3*time.Second, 5*time.Millisecond)

	err := h.engine.Run(context.Background(), nil)
	assert.ErrorIs(t, err, errEngineRunning)
}

func TestSyncEngineStoppedRejectsRequests(t *testing.T) {
	t.Parallel()

	engine := NewSyncEngine(&gatedStore{}, &recordingNotifier{}, testAppID, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, engine.Run(ctx, nil))

	_, err := engine.Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrEngineStopped)
	assert.ErrorIs(t, engine.Mutate(context.Background(), toggle), domain.ErrEngineStopped)
}

func TestSyncEngineSubscribeFailureIsNotified(t *testing.T) {
	t.Parallel()

	store := mocks.NewMockDocumentStore(t)
	notifier := mocks.NewMockNotifier(t)
	path := domain.ConfigPath(testAppID, "u1")

	store.EXPECT().Subscribe(mockAnyContext(), path).Return(nil, errors.New("unavailable")).Once()
	notifier.EXPECT().Notify(mock.MatchedBy(func(notice domain.Notice) bool {
		return notice.Level == domain.NoticeError && strings.Contains(notice.Text, "unavailable")
	})).Return().Once()

	engine := NewSyncEngine(store, notifier, testAppID, zerolog.Nop())
	sessions := make(chan domain.Session, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx, sessions) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	sessions <- authenticatedSession("u1")
	require.Eventually(t, func() bool {
		session, err := engine.Session(ctx)
		return err == nil && session.Authenticated()
	}, 3*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, engine.WaitReady(ctx), domain.ErrSubscription)
}

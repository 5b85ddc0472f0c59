package panel

import (
	"errors"
	"testing"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authenticated(uid domain.UserID, anonymous bool) domain.Session {
	return domain.Session{
		State:    domain.AuthStateAuthenticated,
		Identity: &domain.Identity{UserID: uid, Anonymous: anonymous},
	}
}

func TestRenderFullPanel(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	fetched := now.Add(-2 * time.Hour)

	cfg := domain.DefaultBotConfig()
	cfg.Online = true
	cfg.CurrentTrack = &domain.Track{ID: "t0", SourceURL: "https://a", Title: "Track from https://a"}
	cfg.Queue = []domain.Track{
		{ID: "t1", SourceURL: "https://b", Title: "Track from https://b"},
		{ID: "t2", SourceURL: "https://c", Title: "Track from https://c"},
	}
	cfg.SocialAccounts = []domain.SocialAccount{
		{ID: "a1", Platform: domain.PlatformTwitch, HandleOrURL: "streamer", LastFetched: &fetched},
	}
	cfg.RecentUpdates = []domain.UpdateEvent{
		{ID: "u1", AccountID: "a1", Text: "streamer just went live", Timestamp: now.Add(-5 * time.Minute)},
	}

	output, err := Render(State{Session: authenticated("uid-1", true), Config: cfg}, RenderOptions{Now: now, Selected: -1})
	require.NoError(t, err)

	assert.Contains(t, output, "Bot Control Panel")
	assert.Contains(t, output, "user: uid-1 (anonymous)")
	assert.Contains(t, output, "ONLINE")
	assert.Contains(t, output, "now playing: Track from https://a")
	assert.Contains(t, output, "queue: 2")
	assert.Contains(t, output, " 1. Track from https://b")
	assert.Contains(t, output, " 2. Track from https://c")
	assert.Contains(t, output, "Social accounts (1)")
	assert.Contains(t, output, "[Twitch] streamer")
	assert.Contains(t, output, "fetched 2 hours ago")
	assert.Contains(t, output, "streamer just went live 5 minutes ago")
}

func TestRenderEmptyPanel(t *testing.T) {
	output, err := Render(State{
		Session: domain.Session{State: domain.AuthStateUnauthenticated},
		Config:  domain.DefaultBotConfig(),
	}, RenderOptions{Selected: -1})
	require.NoError(t, err)

	assert.Contains(t, output, "user: signed out")
	assert.Contains(t, output, "OFFLINE")
	assert.Contains(t, output, "Nothing playing.")
	assert.Contains(t, output, "queue: 0")
	assert.Contains(t, output, "No social accounts tracked.")
	assert.Contains(t, output, "No updates yet.")
}

func TestRenderShowsNoticeAndFailure(t *testing.T) {
	notice := domain.ErrorNotice("Failed to save changes")
	output, err := Render(State{
		Session: domain.Session{State: domain.AuthStateFailed, Err: errors.New("auth failure: denied")},
		Config:  domain.DefaultBotConfig(),
		Notice:  &notice,
	}, RenderOptions{Selected: -1})
	require.NoError(t, err)

	assert.Contains(t, output, "sign-in failed: auth failure: denied")
	assert.Contains(t, output, "Failed to save changes")
}

func TestRenderMarksSelectedAccount(t *testing.T) {
	cfg := domain.DefaultBotConfig()
	cfg.SocialAccounts = []domain.SocialAccount{
		{ID: "a1", Platform: domain.PlatformX, HandleOrURL: "first"},
		{ID: "a2", Platform: domain.PlatformYouTube, HandleOrURL: "second"},
	}

	output, err := Render(State{Config: cfg}, RenderOptions{Selected: 1})
	require.NoError(t, err)
	assert.Contains(t, output, "> [YouTube] second")
	assert.Contains(t, output, "  [X] first")
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{at: time.Time{}, want: "unknown"},
		{at: now.Add(-10 * time.Second), want: "just now"},
		{at: now.Add(-1 * time.Minute), want: "1 minute ago"},
		{at: now.Add(-3 * time.Hour), want: "3 hours ago"},
		{at: now.Add(-49 * time.Hour), want: "2 days ago (29 Sep)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAgo(tt.at, now))
	}
	assert.Equal(t, "2026-10-01T11:00:00Z", formatAgo(now.Add(-time.Hour), time.Time{}))
}

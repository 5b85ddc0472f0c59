package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
)

// Mutator is the part of SyncEngine the operations need.
type Mutator interface {
	Mutate(ctx context.Context, mutation Mutation) error
}

// MutationQueue implements the panel operations. Each one edits local state
// first and leaves persistence to the engine; failed writes are never rolled
// back.
type MutationQueue struct {
	engine   Mutator
	ids      ports.IDGenerator
	clock    ports.Clock
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewMutationQueue(engine Mutator, ids ports.IDGenerator, clock ports.Clock, notifier ports.Notifier, logger zerolog.Logger) *MutationQueue {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = ports.NewULIDGenerator()
	}

	return &MutationQueue{
		engine:   engine,
		ids:      ids,
		clock:    clock,
		notifier: notifier,
		logger:   logger.With().Str("component", "mutations").Logger(),
	}
}

func (q *MutationQueue) ToggleStatus(ctx context.Context) error {
	var online bool
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		fields := cfg.ToggleOnline()
		online = cfg.Online
		return fields, nil
	})
	if err != nil {
		return fmt.Errorf("toggle status: %w", err)
	}

	if online {
		q.notifier.Notify(domain.InfoNotice("Bot is now online"))
	} else {
		q.notifier.Notify(domain.InfoNotice("Bot is now offline"))
	}
	return nil
}

func (q *MutationQueue) EnqueueTrack(ctx context.Context, url string) (domain.Track, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		q.notifier.Notify(domain.ErrorNotice("Please enter a track URL"))
		return domain.Track{}, fmt.Errorf("enqueue track: %w", domain.ErrEmptyURL)
	}

	track := domain.Track{
		ID:        domain.TrackID(q.ids.NewID()),
		SourceURL: url,
		Title:     trackTitle(url),
	}
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		return cfg.Enqueue(track), nil
	})
	if err != nil {
		return domain.Track{}, fmt.Errorf("enqueue track: %w", err)
	}

	q.notifier.Notify(domain.InfoNotice(fmt.Sprintf("Added %q to the queue", track.Title)))
	return track, nil
}

// PlayNext moves the head of the queue into the current track. On an empty
// queue it clears the current track.
func (q *MutationQueue) PlayNext(ctx context.Context) (*domain.Track, error) {
	var current *domain.Track
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		fields := cfg.Advance()
		if cfg.CurrentTrack != nil {
			track := *cfg.CurrentTrack
			current = &track
		}
		return fields, nil
	})
	if err != nil {
		return nil, fmt.Errorf("play next: %w", err)
	}

	if current == nil {
		q.notifier.Notify(domain.InfoNotice("Queue is empty"))
	} else {
		q.notifier.Notify(domain.InfoNotice(fmt.Sprintf("Now playing %q", current.Title)))
	}
	return current, nil
}

// Skip is PlayNext; skipping and advancing are the same operation.
func (q *MutationQueue) Skip(ctx context.Context) (*domain.Track, error) {
	return q.PlayNext(ctx)
}

func (q *MutationQueue) Stop(ctx context.Context) error {
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		return cfg.Stop(), nil
	})
	if err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}

	q.notifier.Notify(domain.InfoNotice("Playback stopped and queue cleared"))
	return nil
}

func (q *MutationQueue) AddSocialAccount(ctx context.Context, platform domain.Platform, url string) (domain.SocialAccount, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		q.notifier.Notify(domain.ErrorNotice("Please enter an account handle or URL"))
		return domain.SocialAccount{}, fmt.Errorf("add social account: %w", domain.ErrEmptyURL)
	}

	account := domain.SocialAccount{
		ID:          domain.SocialAccountID(q.ids.NewID()),
		Platform:    platform.Normalize(),
		HandleOrURL: url,
	}
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		return cfg.AddAccount(account), nil
	})
	if err != nil {
		return domain.SocialAccount{}, fmt.Errorf("add social account: %w", err)
	}

	q.notifier.Notify(domain.InfoNotice(fmt.Sprintf("Tracking %s account %s", account.Platform.Label(), account.HandleOrURL)))
	return account, nil
}

// RemoveSocialAccount drops the account with id. Unknown ids are not an error.
func (q *MutationQueue) RemoveSocialAccount(ctx context.Context, id domain.SocialAccountID) error {
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		return cfg.RemoveAccount(id), nil
	})
	if err != nil {
		return fmt.Errorf("remove social account: %w", err)
	}

	q.notifier.Notify(domain.InfoNotice("Account removed"))
	return nil
}

// SimulateFetchUpdates stands in for polling the tracked platforms: it
// produces one update per tracked account.
func (q *MutationQueue) SimulateFetchUpdates(ctx context.Context) ([]domain.UpdateEvent, error) {
	var events []domain.UpdateEvent
	err := q.engine.Mutate(ctx, func(cfg *domain.BotConfig) ([]domain.Field, error) {
		if len(cfg.SocialAccounts) == 0 {
			return nil, nil
		}

		now := q.clock.Now().UTC().Truncate(time.Millisecond)
		events = make([]domain.UpdateEvent, 0, len(cfg.SocialAccounts))
		for _, account := range cfg.SocialAccounts {
			events = append(events, domain.UpdateEvent{
				ID:        domain.UpdateEventID(q.ids.NewID()),
				AccountID: account.ID,
				Text:      account.Platform.UpdateText(account.HandleOrURL),
				Timestamp: now,
			})
		}
		return cfg.PrependUpdates(events), nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch updates: %w", err)
	}

	if len(events) == 0 {
		q.notifier.Notify(domain.InfoNotice("No social accounts tracked yet"))
		return nil, nil
	}

	q.logger.Debug().Int("updates", len(events)).Msg("simulated fetch")
	q.notifier.Notify(domain.InfoNotice(fmt.Sprintf("Fetched %d new updates", len(events))))
	return events, nil
}

func trackTitle(url string) string {
	return "Track from " + url
}

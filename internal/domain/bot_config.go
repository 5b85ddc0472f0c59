package domain

import (
	"fmt"
	"time"
)

const MaxRecentUpdates = 10

type TrackID string
type SocialAccountID string
type UpdateEventID string

type Track struct {
	ID        TrackID
	SourceURL string
	Title     string
}

type SocialAccount struct {
	ID          SocialAccountID
	Platform    Platform
	HandleOrURL string
	LastFetched *time.Time
}

type UpdateEvent struct {
	ID        UpdateEventID
	AccountID SocialAccountID
	Text      string
	Timestamp time.Time
}

// Field names a top-level field of the config document.
type Field string

const (
	FieldOnline         Field = "online"
	FieldCurrentTrack   Field = "currentTrack"
	FieldQueue          Field = "queue"
	FieldSocialAccounts Field = "socialAccounts"
	FieldRecentUpdates  Field = "recentUpdates"
)

func AllFields() []Field {
	return []Field{FieldOnline, FieldCurrentTrack, FieldQueue, FieldSocialAccounts, FieldRecentUpdates}
}

type BotConfig struct {
	Online         bool
	CurrentTrack   *Track
	Queue          []Track
	SocialAccounts []SocialAccount
	RecentUpdates  []UpdateEvent
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Queue:          []Track{},
		SocialAccounts: []SocialAccount{},
		RecentUpdates:  []UpdateEvent{},
	}
}

// ConfigPath is the document path of the bot config owned by userID.
func ConfigPath(appID string, userID UserID) string {
	return fmt.Sprintf("apps/%s/users/%s/bot-data/config", appID, userID)
}

func (c BotConfig) Clone() BotConfig {
	out := BotConfig{
		Online:         c.Online,
		Queue:          append([]Track{}, c.Queue...),
		SocialAccounts: make([]SocialAccount, 0, len(c.SocialAccounts)),
		RecentUpdates:  append([]UpdateEvent{}, c.RecentUpdates...),
	}
	if c.CurrentTrack != nil {
		track := *c.CurrentTrack
		out.CurrentTrack = &track
	}
	for _, account := range c.SocialAccounts {
		if account.LastFetched != nil {
			fetched := *account.LastFetched
			account.LastFetched = &fetched
		}
		out.SocialAccounts = append(out.SocialAccounts, account)
	}
	return out
}

func (c *BotConfig) ToggleOnline() []Field {
	c.Online = !c.Online
	return []Field{FieldOnline}
}

func (c *BotConfig) Enqueue(track Track) []Field {
	c.Queue = append(c.Queue, track)
	return []Field{FieldQueue}
}

// Advance moves the head of the queue into CurrentTrack. With an empty queue
// it clears CurrentTrack and only that field changes.
func (c *BotConfig) Advance() []Field {
	if len(c.Queue) == 0 {
		c.CurrentTrack = nil
		return []Field{FieldCurrentTrack}
	}

	next := c.Queue[0]
	c.CurrentTrack = &next
	c.Queue = append([]Track{}, c.Queue[1:]...)
	return []Field{FieldCurrentTrack, FieldQueue}
}

func (c *BotConfig) Stop() []Field {
	c.CurrentTrack = nil
	c.Queue = []Track{}
	return []Field{FieldCurrentTrack, FieldQueue}
}

func (c *BotConfig) AddAccount(account SocialAccount) []Field {
	accounts := make([]SocialAccount, 0, len(c.SocialAccounts)+1)
	for _, existing := range c.SocialAccounts {
		if existing.ID == account.ID {
			continue
		}
		accounts = append(accounts, existing)
	}
	c.SocialAccounts = append(accounts, account)
	return []Field{FieldSocialAccounts}
}

func (c *BotConfig) RemoveAccount(id SocialAccountID) []Field {
	accounts := make([]SocialAccount, 0, len(c.SocialAccounts))
	for _, account := range c.SocialAccounts {
		if account.ID == id {
			continue
		}
		accounts = append(accounts, account)
	}
	c.SocialAccounts = accounts
	return []Field{FieldSocialAccounts}
}

func (c BotConfig) Account(id SocialAccountID) (SocialAccount, bool) {
	for _, account := range c.SocialAccounts {
		if account.ID == id {
			return account, true
		}
	}
	return SocialAccount{}, false
}

// PrependUpdates puts events ahead of the existing updates, keeping the
// newest MaxRecentUpdates entries.
func (c *BotConfig) PrependUpdates(events []UpdateEvent) []Field {
	updates := make([]UpdateEvent, 0, len(events)+len(c.RecentUpdates))
	updates = append(updates, events...)
	updates = append(updates, c.RecentUpdates...)
	if len(updates) > MaxRecentUpdates {
		updates = updates[:MaxRecentUpdates]
	}
	c.RecentUpdates = updates
	return []Field{FieldRecentUpdates}
}

// Normalize restores the documented empty values and the document invariants
// on a config decoded from an untrusted source.
func (c *BotConfig) Normalize() {
	if c.Queue == nil {
		c.Queue = []Track{}
	}
	if c.SocialAccounts == nil {
		c.SocialAccounts = []SocialAccount{}
	}
	if c.RecentUpdates == nil {
		c.RecentUpdates = []UpdateEvent{}
	}
	if len(c.RecentUpdates) > MaxRecentUpdates {
		c.RecentUpdates = c.RecentUpdates[:MaxRecentUpdates]
	}
	if c.CurrentTrack != nil {
		queue := make([]Track, 0, len(c.Queue))
		for _, track := range c.Queue {
			if track.ID == c.CurrentTrack.ID {
				continue
			}
			queue = append(queue, track)
		}
		c.Queue = queue
	}

	seen := make(map[SocialAccountID]struct{}, len(c.SocialAccounts))
	accounts := make([]SocialAccount, 0, len(c.SocialAccounts))
	for _, account := range c.SocialAccounts {
		if _, ok := seen[account.ID]; ok {
			continue
		}
		seen[account.ID] = struct{}{}
		account.Platform = account.Platform.Normalize()
		accounts = append(accounts, account)
	}
	c.SocialAccounts = accounts
}

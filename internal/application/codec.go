package application

import (
	"fmt"
	"reflect"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/go-viper/mapstructure/v2"
)

const documentTag = "doc"

type documentSchema struct {
	Online         bool                  `doc:"online"`
	CurrentTrack   *trackSchema          `doc:"currentTrack"`
	Queue          []trackSchema         `doc:"queue"`
	SocialAccounts []socialAccountSchema `doc:"socialAccounts"`
	RecentUpdates  []updateEventSchema   `doc:"recentUpdates"`
}

type trackSchema struct {
	ID        string `doc:"id"`
	SourceURL string `doc:"sourceUrl"`
	Title     string `doc:"title"`
}

type socialAccountSchema struct {
	ID          string     `doc:"id"`
	Platform    string     `doc:"platform"`
	HandleOrURL string     `doc:"handleOrUrl"`
	LastFetched *time.Time `doc:"lastFetched"`
}

type updateEventSchema struct {
	ID        string    `doc:"id"`
	AccountID string    `doc:"accountId"`
	Text      string    `doc:"text"`
	Timestamp time.Time `doc:"timestamp"`
}

// DecodeBotConfig turns a snapshot payload into a config. Missing or null
// fields take their documented empty values.
func DecodeBotConfig(data map[string]any) (domain.BotConfig, error) {
	var schema documentSchema
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          documentTag,
		WeaklyTypedInput: true,
		Result:           &schema,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			unixMillisToTimeHook,
		),
	})
	if err != nil {
		return domain.BotConfig{}, fmt.Errorf("create document decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return domain.BotConfig{}, fmt.Errorf("decode bot config document: %w", err)
	}

	cfg := fromDocumentSchema(schema)
	cfg.Normalize()
	return cfg, nil
}

// EncodeFields renders the requested top-level fields of cfg as a merge-write
// payload. An absent current track is encoded as nil so the write clears it.
func EncodeFields(cfg domain.BotConfig, fields ...domain.Field) map[string]any {
	payload := make(map[string]any, len(fields))
	for _, field := range fields {
		switch field {
		case domain.FieldOnline:
			payload[string(field)] = cfg.Online
		case domain.FieldCurrentTrack:
			if cfg.CurrentTrack == nil {
				payload[string(field)] = nil
				continue
			}
			payload[string(field)] = encodeTrack(*cfg.CurrentTrack)
		case domain.FieldQueue:
			queue := make([]any, 0, len(cfg.Queue))
			for _, track := range cfg.Queue {
				queue = append(queue, encodeTrack(track))
			}
			payload[string(field)] = queue
		case domain.FieldSocialAccounts:
			accounts := make([]any, 0, len(cfg.SocialAccounts))
			for _, account := range cfg.SocialAccounts {
				accounts = append(accounts, encodeSocialAccount(account))
			}
			payload[string(field)] = accounts
		case domain.FieldRecentUpdates:
			updates := make([]any, 0, len(cfg.RecentUpdates))
			for _, update := range cfg.RecentUpdates {
				updates = append(updates, map[string]any{
					"id":        string(update.ID),
					"accountId": string(update.AccountID),
					"text":      update.Text,
					"timestamp": update.Timestamp,
				})
			}
			payload[string(field)] = updates
		}
	}
	return payload
}

func encodeTrack(track domain.Track) map[string]any {
	return map[string]any{
		"id":        string(track.ID),
		"sourceUrl": track.SourceURL,
		"title":     track.Title,
	}
}

func encodeSocialAccount(account domain.SocialAccount) map[string]any {
	encoded := map[string]any{
		"id":          string(account.ID),
		"platform":    string(account.Platform),
		"handleOrUrl": account.HandleOrURL,
	}
	if account.LastFetched != nil {
		encoded["lastFetched"] = *account.LastFetched
	}
	return encoded
}

func fromDocumentSchema(schema documentSchema) domain.BotConfig {
	cfg := domain.BotConfig{
		Online:         schema.Online,
		Queue:          make([]domain.Track, 0, len(schema.Queue)),
		SocialAccounts: make([]domain.SocialAccount, 0, len(schema.SocialAccounts)),
		RecentUpdates:  make([]domain.UpdateEvent, 0, len(schema.RecentUpdates)),
	}
	if schema.CurrentTrack != nil {
		track := fromTrackSchema(*schema.CurrentTrack)
		cfg.CurrentTrack = &track
	}
	for _, track := range schema.Queue {
		cfg.Queue = append(cfg.Queue, fromTrackSchema(track))
	}
	for _, account := range schema.SocialAccounts {
		cfg.SocialAccounts = append(cfg.SocialAccounts, domain.SocialAccount{
			ID:          domain.SocialAccountID(account.ID),
			Platform:    domain.Platform(account.Platform),
			HandleOrURL: account.HandleOrURL,
			LastFetched: account.LastFetched,
		})
	}
	for _, update := range schema.RecentUpdates {
		cfg.RecentUpdates = append(cfg.RecentUpdates, domain.UpdateEvent{
			ID:        domain.UpdateEventID(update.ID),
			AccountID: domain.SocialAccountID(update.AccountID),
			Text:      update.Text,
			Timestamp: update.Timestamp,
		})
	}
	return cfg
}

func fromTrackSchema(track trackSchema) domain.Track {
	return domain.Track{
		ID:        domain.TrackID(track.ID),
		SourceURL: track.SourceURL,
		Title:     track.Title,
	}
}

// Documents written by browser clients carry epoch-millisecond timestamps.
func unixMillisToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}

	switch v := data.(type) {
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return data, nil
	}
}

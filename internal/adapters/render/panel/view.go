package panel

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// State is everything the panel shows.
type State struct {
	Session domain.Session
	Config  domain.BotConfig
	Notice  *domain.Notice
}

type RenderOptions struct {
	Now time.Time
	// Selected highlights one social account, -1 for none.
	Selected int
}

func renderView(state State, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Bot Control Panel"),
		s.header.Render(sessionLine(state.Session)),
		statusLine(state.Config.Online, s),
	}

	if state.Notice != nil && state.Notice.Text != "" {
		lines = append(lines, s.notice(state.Notice.Level).Render(state.Notice.Text))
	}

	lines = append(lines,
		s.section.Render(renderPlayback(state.Config, s)),
		s.section.Render(renderAccounts(state.Config.SocialAccounts, opts, s)),
		s.section.Render(renderUpdates(state.Config, opts, s)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionLine(session domain.Session) string {
	switch session.State {
	case domain.AuthStateAuthenticated:
		kind := "signed in"
		if session.Identity != nil && session.Identity.Anonymous {
			kind = "anonymous"
		}
		return fmt.Sprintf("user: %s (%s)", session.UserID(), kind)
	case domain.AuthStateAuthenticating:
		return "user: signing in..."
	case domain.AuthStateFailed:
		if session.Err != nil {
			return "user: sign-in failed: " + session.Err.Error()
		}
		return "user: sign-in failed"
	default:
		return "user: signed out"
	}
}

func statusLine(online bool, s styles) string {
	if online {
		return "status: " + s.online.Render("ONLINE")
	}
	return "status: " + s.offline.Render("OFFLINE")
}

func renderPlayback(cfg domain.BotConfig, s styles) string {
	parts := []string{s.sectionHead.Render("Music")}

	if cfg.CurrentTrack == nil {
		parts = append(parts, s.empty.Render("Nothing playing."))
	} else {
		parts = append(parts, "now playing: "+s.track.Render(cfg.CurrentTrack.Title))
	}

	parts = append(parts, s.header.Render(fmt.Sprintf("queue: %d", len(cfg.Queue))))
	for i, track := range cfg.Queue {
		parts = append(parts, fmt.Sprintf("%s %s", s.index.Render(fmt.Sprintf("%2d.", i+1)), s.detail.Render(track.Title)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderAccounts(accounts []domain.SocialAccount, opts RenderOptions, s styles) string {
	parts := []string{s.sectionHead.Render(fmt.Sprintf("Social accounts (%d)", len(accounts)))}

	if len(accounts) == 0 {
		parts = append(parts, s.empty.Render("No social accounts tracked."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	for i, account := range accounts {
		line := fmt.Sprintf("%s %s %s",
			s.platform.Render(fmt.Sprintf("[%s]", account.Platform.Label())),
			s.detail.Render(account.HandleOrURL),
			s.index.Render(string(account.ID)),
		)
		if account.LastFetched != nil {
			line += " " + s.timestamp.Render("fetched "+formatAgo(*account.LastFetched, opts.Now))
		}
		if i == opts.Selected {
			line = s.selected.Render(">") + " " + line
		} else {
			line = "  " + line
		}
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderUpdates(cfg domain.BotConfig, opts RenderOptions, s styles) string {
	parts := []string{s.sectionHead.Render("Recent updates")}

	if len(cfg.RecentUpdates) == 0 {
		parts = append(parts, s.empty.Render("No updates yet."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	for _, update := range cfg.RecentUpdates {
		line := s.detail.Render(update.Text)
		if account, ok := cfg.Account(update.AccountID); ok {
			line = s.platform.Render(fmt.Sprintf("[%s]", account.Platform.Label())) + " " + line
		}
		line += " " + s.timestamp.Render(formatAgo(update.Timestamp, opts.Now))
		parts = append(parts, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatAgo(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.UTC().Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	}
	if elapsed < 24*time.Hour {
		return plural(int(elapsed.Hours()), "hour") + " ago"
	}

	days := int(math.Floor(elapsed.Hours() / 24))
	return fmt.Sprintf("%s ago (%s)", plural(days, "day"), at.Format("02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// RenderNotice formats a notice on its own, for the CLI toast display.
func RenderNotice(notice domain.Notice) string {
	s := newStyles()
	return s.notice(notice.Level).Render(strings.TrimSpace(notice.Text))
}

package panel

import (
	"github.com/bnema/botctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title       lipgloss.Style
	header      lipgloss.Style
	online      lipgloss.Style
	offline     lipgloss.Style
	sectionHead lipgloss.Style
	section     lipgloss.Style
	track       lipgloss.Style
	detail      lipgloss.Style
	index       lipgloss.Style
	platform    lipgloss.Style
	timestamp   lipgloss.Style
	empty       lipgloss.Style
	selected    lipgloss.Style
	help        lipgloss.Style
	noticeInfo  lipgloss.Style
	noticeError lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true),
		header:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		online:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		offline:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		sectionHead: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		section:     lipgloss.NewStyle().MarginTop(1),
		track:       lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		detail:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		index:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		platform:    lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		timestamp:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:       lipgloss.NewStyle().Faint(true),
		selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		noticeInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("24")).Padding(0, 1),
		noticeError: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("124")).Padding(0, 1),
	}
}

func (s styles) notice(level domain.NoticeLevel) lipgloss.Style {
	if level == domain.NoticeError {
		return s.noticeError
	}
	return s.noticeInfo
}

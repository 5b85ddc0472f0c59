package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Actions are the operations the interactive panel can trigger.
type Actions interface {
	ToggleStatus(ctx context.Context) error
	EnqueueTrack(ctx context.Context, url string) (domain.Track, error)
	PlayNext(ctx context.Context) (*domain.Track, error)
	Skip(ctx context.Context) (*domain.Track, error)
	Stop(ctx context.Context) error
	AddSocialAccount(ctx context.Context, platform domain.Platform, url string) (domain.SocialAccount, error)
	RemoveSocialAccount(ctx context.Context, id domain.SocialAccountID) error
	SimulateFetchUpdates(ctx context.Context) ([]domain.UpdateEvent, error)
}

// ConfigMsg carries a new local config to the panel.
type ConfigMsg struct {
	Config domain.BotConfig
}

// SessionMsg carries a session change to the panel.
type SessionMsg struct {
	Session domain.Session
}

// NoticeMsg shows a notice, or hides the current one when Notice is nil.
type NoticeMsg struct {
	Notice *domain.Notice
	Seq    uint64
}

type actionDoneMsg struct {
	err error
}

type inputMode int

const (
	modeNormal inputMode = iota
	modeAddTrack
	modeAddAccount
)

const helpText = "o toggle · a add track · n next · k skip · s stop · c add account · d remove · f fetch · q quit"

type Interactive struct {
	ctx     context.Context
	actions Actions
	clock   func() time.Time
	styles  styles

	state     State
	loaded    bool
	noticeSeq uint64
	selected  int
	mode      inputMode
	input     textinput.Model
	spinner   spinner.Model
	quitting  bool
}

func NewInteractive(ctx context.Context, actions Actions, initial State) Interactive {
	input := textinput.New()
	input.CharLimit = 512
	input.Width = 60

	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return Interactive{
		ctx:      ctx,
		actions:  actions,
		clock:    time.Now,
		styles:   newStyles(),
		state:    initial,
		selected: -1,
		input:    input,
		spinner:  s,
	}
}

func (m Interactive) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Interactive) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ConfigMsg:
		m.state.Config = msg.Config
		m.loaded = true
		m.clampSelection()
		return m, nil
	case SessionMsg:
		m.state.Session = msg.Session
		return m, nil
	case NoticeMsg:
		if msg.Seq != 0 && msg.Seq < m.noticeSeq {
			return m, nil
		}
		m.noticeSeq = msg.Seq
		m.state.Notice = msg.Notice
		return m, nil
	case actionDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, domain.ErrEmptyURL) {
			notice := domain.ErrorNotice(msg.err.Error())
			m.state.Notice = &notice
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updateInput(msg)
		}
		return m.updateNormal(msg)
	default:
		return m, nil
	}
}

func (m Interactive) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "o":
		return m, m.run(func(ctx context.Context) error { return m.actions.ToggleStatus(ctx) })
	case "n":
		return m, m.run(func(ctx context.Context) error {
			_, err := m.actions.PlayNext(ctx)
			return err
		})
	case "k":
		return m, m.run(func(ctx context.Context) error {
			_, err := m.actions.Skip(ctx)
			return err
		})
	case "s":
		return m, m.run(func(ctx context.Context) error { return m.actions.Stop(ctx) })
	case "f":
		return m, m.run(func(ctx context.Context) error {
			_, err := m.actions.SimulateFetchUpdates(ctx)
			return err
		})
	case "a":
		return m.startInput(modeAddTrack, "https://...")
	case "c":
		return m.startInput(modeAddAccount, "platform handle-or-url")
	case "d":
		if m.selected < 0 || m.selected >= len(m.state.Config.SocialAccounts) {
			return m, nil
		}
		id := m.state.Config.SocialAccounts[m.selected].ID
		return m, m.run(func(ctx context.Context) error { return m.actions.RemoveSocialAccount(ctx, id) })
	case "up":
		if m.selected > 0 {
			m.selected--
		} else if len(m.state.Config.SocialAccounts) > 0 {
			m.selected = 0
		}
		return m, nil
	case "down":
		if m.selected < len(m.state.Config.SocialAccounts)-1 {
			m.selected++
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Interactive) startInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m Interactive) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		mode := m.mode
		value := m.input.Value()
		m.mode = modeNormal
		m.input.Blur()
		m.input.SetValue("")
		return m, m.submit(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Interactive) submit(mode inputMode, value string) tea.Cmd {
	switch mode {
	case modeAddTrack:
		return m.run(func(ctx context.Context) error {
			_, err := m.actions.EnqueueTrack(ctx, value)
			return err
		})
	case modeAddAccount:
		platform, url, err := parseAccountInput(value)
		if err != nil {
			return func() tea.Msg { return actionDoneMsg{err: err} }
		}
		return m.run(func(ctx context.Context) error {
			_, err := m.actions.AddSocialAccount(ctx, platform, url)
			return err
		})
	default:
		return nil
	}
}

// parseAccountInput splits "platform handle" input. A lone handle is
// tracked under the other platform.
func parseAccountInput(value string) (domain.Platform, string, error) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 0:
		return domain.PlatformOther, "", nil
	case 1:
		return domain.PlatformOther, fields[0], nil
	}

	platform, err := domain.ParsePlatform(fields[0])
	if err != nil {
		return "", "", err
	}
	return platform, strings.Join(fields[1:], " "), nil
}

func (m Interactive) run(action func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: action(ctx)}
	}
}

func (m *Interactive) clampSelection() {
	count := len(m.state.Config.SocialAccounts)
	if count == 0 {
		m.selected = -1
		return
	}
	if m.selected >= count {
		m.selected = count - 1
	}
}

func (m Interactive) View() string {
	if m.quitting {
		return ""
	}
	if !m.loaded {
		return fmt.Sprintf("%s %s\n", m.spinner.View(), "Loading bot config...")
	}

	body := renderView(m.state, RenderOptions{Now: m.clock(), Selected: m.selected}, m.styles)

	var footer string
	switch m.mode {
	case modeAddTrack:
		footer = "Track URL: " + m.input.View()
	case modeAddAccount:
		footer = "Account: " + m.input.View()
	default:
		footer = m.styles.help.Render(helpText)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, "", footer) + "\n"
}

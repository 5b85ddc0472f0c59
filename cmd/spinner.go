package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// step is one phase of a command's round trip to the document store.
type step struct {
	label string
	run   func(context.Context) error
}

type stepDoneMsg struct {
	index int
	err   error
}

// progressModel runs steps one after the other and shows the label of the
// step in flight. The first failing step ends the run.
type progressModel struct {
	ctx     context.Context
	spinner spinner.Model
	steps   []step
	current int
	err     error
	done    bool
}

func newProgressModel(ctx context.Context, steps []step) progressModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressModel{
		ctx:     ctx,
		spinner: s,
		steps:   steps,
		done:    len(steps) == 0,
	}
}

func (m progressModel) Init() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m progressModel) runStep(index int) tea.Cmd {
	ctx, run := m.ctx, m.steps[index].run
	return func() tea.Msg {
		return stepDoneMsg{index: index, err: run(ctx)}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		if m.done || msg.index != m.current {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.done = true
			return m, tea.Quit
		}
		m.current++
		if m.current == len(m.steps) {
			m.done = true
			return m, tea.Quit
		}
		return m, m.runStep(m.current)
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	if len(m.steps) == 1 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.steps[m.current].label)
	}
	return fmt.Sprintf("%s %s (%d/%d)", m.spinner.View(), m.steps[m.current].label, m.current+1, len(m.steps))
}

// runSteps runs steps in order while a spinner on output names the current
// one, and returns the first error.
func runSteps(ctx context.Context, output io.Writer, steps ...step) error {
	p := tea.NewProgram(
		newProgressModel(ctx, steps),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.err
}

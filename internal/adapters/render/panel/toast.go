package panel

import (
	"fmt"
	"io"
	"sync"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
	tea "github.com/charmbracelet/bubbletea"
)

// WriterDisplay prints each notice as a styled line. Hiding is a no-op
// because printed lines cannot be taken back.
type WriterDisplay struct {
	mu sync.Mutex
	w  io.Writer
}

var _ ports.Display = (*WriterDisplay)(nil)

func NewWriterDisplay(w io.Writer) *WriterDisplay {
	return &WriterDisplay{w: w}
}

func (d *WriterDisplay) ShowNotice(notice domain.Notice) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, _ = fmt.Fprintln(d.w, RenderNotice(notice))
}

func (d *WriterDisplay) HideNotice() {}

// ProgramDisplay forwards notices to a running interactive panel.
type ProgramDisplay struct {
	mu      sync.Mutex
	program *tea.Program
	seq     uint64
}

var _ ports.Display = (*ProgramDisplay)(nil)

func NewProgramDisplay() *ProgramDisplay {
	return &ProgramDisplay{}
}

// Attach starts forwarding to p. Notices shown before are dropped.
func (d *ProgramDisplay) Attach(p *tea.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.program = p
}

func (d *ProgramDisplay) ShowNotice(notice domain.Notice) {
	d.send(&notice)
}

func (d *ProgramDisplay) HideNotice() {
	d.send(nil)
}

// send never blocks the caller. Messages may arrive out of order, so each
// carries a sequence number and the panel drops stale ones.
func (d *ProgramDisplay) send(notice *domain.Notice) {
	d.mu.Lock()
	d.seq++
	msg := NoticeMsg{Notice: notice, Seq: d.seq}
	p := d.program
	d.mu.Unlock()

	if p != nil {
		go p.Send(msg)
	}
}

package application

import (
	"sync"
	"time"

	"github.com/bnema/botctl/internal/domain"
	"github.com/bnema/botctl/internal/ports"
)

const DefaultNoticeDuration = 3 * time.Second

type stopper interface {
	Stop() bool
}

// NotificationService keeps at most one notice on the display. A new notice
// replaces the current one and restarts the auto-hide timer.
type NotificationService struct {
	display  ports.Display
	duration time.Duration
	// afterFunc is time.AfterFunc outside of tests.
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	timer   stopper
	seq     uint64
	current *domain.Notice
	closed  bool
}

var _ ports.Notifier = (*NotificationService)(nil)

func NewNotificationService(display ports.Display, duration time.Duration) *NotificationService {
	if duration <= 0 {
		duration = DefaultNoticeDuration
	}

	return &NotificationService{
		display:  display,
		duration: duration,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

func (n *NotificationService) Notify(notice domain.Notice) {
	n.ShowFor(notice, n.duration)
}

func (n *NotificationService) Show(message string) {
	n.ShowFor(domain.InfoNotice(message), n.duration)
}

func (n *NotificationService) ShowFor(notice domain.Notice, duration time.Duration) {
	if duration <= 0 {
		duration = n.duration
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	n.current = &notice
	n.display.ShowNotice(notice)
	n.timer = n.afterFunc(duration, func() {
		n.expire(seq)
	})
}

// Current is the notice on display, if any.
func (n *NotificationService) Current() (domain.Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return domain.Notice{}, false
	}
	return *n.current, true
}

// Close cancels the pending auto-hide timer. Later notices are dropped.
func (n *NotificationService) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.closed = true
}

func (n *NotificationService) expire(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// a newer notice owns the display
	if seq != n.seq || n.closed {
		return
	}
	n.timer = nil
	n.current = nil
	n.display.HideNotice()
}

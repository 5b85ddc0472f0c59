package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/botctl/internal/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchSubscription follows one document file. The parent directory is
// watched rather than the file so atomic renames are seen.
type watchSubscription struct {
	filePath string
	debounce time.Duration
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	events   chan ports.SnapshotEvent
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once

	lastData   []byte
	lastExists bool
	delivered  bool
}

func newWatchSubscription(ctx context.Context, filePath string, debounce time.Duration, logger zerolog.Logger) (*watchSubscription, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch document directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &watchSubscription{
		filePath: filePath,
		debounce: debounce,
		logger:   logger.With().Str("file", filePath).Logger(),
		watcher:  watcher,
		events:   make(chan ports.SnapshotEvent, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go sub.run(ctx)
	return sub, nil
}

func (s *watchSubscription) Snapshots() <-chan ports.SnapshotEvent {
	return s.events
}

func (s *watchSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.watcher.Close()
	})
	return err
}

func (s *watchSubscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	s.emit()

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.filePath {
				continue
			}
			timer.Reset(s.debounce)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("watch error")
			s.deliver(ports.SnapshotEvent{Err: fmt.Errorf("watch document: %w", err)})
		case <-timer.C:
			s.emit()
		}
	}
}

// emit reads the file and delivers it unless it is unchanged since the last
// delivery.
func (s *watchSubscription) emit() {
	mu := lockForPath(s.filePath)
	mu.RLock()
	data, err := os.ReadFile(s.filePath)
	mu.RUnlock()

	exists := true
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.deliver(ports.SnapshotEvent{Err: fmt.Errorf("read document file: %w", err)})
			return
		}
		exists = false
		data = nil
	}

	if s.delivered && exists == s.lastExists && bytes.Equal(data, s.lastData) {
		return
	}

	event := ports.SnapshotEvent{Exists: exists}
	if exists {
		doc, err := decodeDocument(data)
		if err != nil {
			s.deliver(ports.SnapshotEvent{Err: err})
			return
		}
		event.Data = doc.Fields
	}

	s.lastData = data
	s.lastExists = exists
	s.delivered = true
	s.deliver(event)
}

// deliver keeps only the newest event when the reader falls behind.
func (s *watchSubscription) deliver(event ports.SnapshotEvent) {
	for {
		select {
		case s.events <- event:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

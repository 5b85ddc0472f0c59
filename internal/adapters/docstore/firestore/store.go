package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Options struct {
	ProjectID string
	// TokenSource signs requests as the end user. Nil falls back to
	// application default credentials.
	TokenSource oauth2.TokenSource
	Logger      zerolog.Logger
}

type Store struct {
	client *firestore.Client
	logger zerolog.Logger
}

var _ ports.DocumentStore = (*Store)(nil)

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, errors.New("projectID is required for Firestore store")
	}

	var clientOpts []option.ClientOption
	if opts.TokenSource != nil {
		clientOpts = append(clientOpts, option.WithTokenSource(opts.TokenSource))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &Store{
		client: client,
		logger: opts.Logger.With().Str("component", "firestore").Logger(),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Write merges fields into the document. Nil values are stored as null.
func (s *Store) Write(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}

	if _, err := ref.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("firestore write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string) (ports.Subscription, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	iter := ref.Snapshots(ctx)
	sub := newSnapshotSubscription(cancel, func() (snapshot, error) {
		snap, err := iter.Next()
		if err != nil {
			return snapshot{}, err
		}
		if !snap.Exists() {
			return snapshot{}, nil
		}
		return snapshot{exists: true, data: snap.Data()}, nil
	}, iter.Stop, s.logger.With().Str("path", path).Logger())

	go sub.run()
	return sub, nil
}

func (s *Store) doc(path string) (*firestore.DocumentRef, error) {
	ref := s.client.Doc(strings.Trim(path, "/"))
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	return ref, nil
}

type snapshot struct {
	exists bool
	data   map[string]any
}

type snapshotSubscription struct {
	next   func() (snapshot, error)
	stop   func()
	cancel context.CancelFunc
	logger zerolog.Logger
	events chan ports.SnapshotEvent
	done   chan struct{}
	once   sync.Once
}

func newSnapshotSubscription(cancel context.CancelFunc, next func() (snapshot, error), stop func(), logger zerolog.Logger) *snapshotSubscription {
	return &snapshotSubscription{
		next:   next,
		stop:   stop,
		cancel: cancel,
		logger: logger,
		events: make(chan ports.SnapshotEvent, 1),
		done:   make(chan struct{}),
	}
}

func (s *snapshotSubscription) Snapshots() <-chan ports.SnapshotEvent {
	return s.events
}

func (s *snapshotSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// run pumps the listener until it fails. A failed listener is not restarted;
// the error is delivered and the channel closed.
func (s *snapshotSubscription) run() {
	defer close(s.done)
	defer close(s.events)
	defer s.stop()

	for {
		snap, err := s.next()
		if err != nil {
			if errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Warn().Err(err).Msg("snapshot listener failed")
			s.deliver(ports.SnapshotEvent{Err: fmt.Errorf("firestore listen: %w", err)})
			return
		}

		s.deliver(ports.SnapshotEvent{Exists: snap.exists, Data: snap.data})
	}
}

func (s *snapshotSubscription) deliver(event ports.SnapshotEvent) {
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

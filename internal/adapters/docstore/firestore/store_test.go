package firestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/botctl/internal/ports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type step struct {
	snap snapshot
	err  error
}

func scripted(steps ...step) func() (snapshot, error) {
	i := 0
	return func() (snapshot, error) {
		if i >= len(steps) {
			return snapshot{}, iterator.Done
		}
		s := steps[i]
		i++
		return s.snap, s.err
	}
}

func drain(t *testing.T, sub *snapshotSubscription) []ports.SnapshotEvent {
	t.Helper()

	var events []ports.SnapshotEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-sub.Snapshots():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("subscription did not close")
			return nil
		}
	}
}

func TestSubscriptionDeliversSnapshotsUntilDone(t *testing.T) {
	t.Parallel()

	stopped := false
	_, cancel := context.WithCancel(context.Background())
	sub := newSnapshotSubscription(cancel, scripted(
		step{snap: snapshot{}},
		step{snap: snapshot{exists: true, data: map[string]any{"online": true}}},
	), func() { stopped = true }, zerolog.Nop())

	go sub.run()
	events := drain(t, sub)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Exists)
	assert.Equal(t, true, last.Data["online"])
	assert.True(t, stopped)
}

func TestSubscriptionReportsListenerFailure(t *testing.T) {
	t.Parallel()

	_, cancel := context.WithCancel(context.Background())
	sub := newSnapshotSubscription(cancel, scripted(
		step{err: status.Error(codes.PermissionDenied, "missing or insufficient permissions")},
	), func() {}, zerolog.Nop())

	go sub.run()
	events := drain(t, sub)

	require.Len(t, events, 1)
	require.Error(t, events[0].Err)
	assert.Equal(t, codes.PermissionDenied, status.Code(errors.Unwrap(events[0].Err)))
}

func TestSubscriptionCancelEndsQuietly(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sub := newSnapshotSubscription(cancel, func() (snapshot, error) {
		<-ctx.Done()
		return snapshot{}, status.Error(codes.Canceled, "context canceled")
	}, func() {}, zerolog.Nop())

	go sub.run()
	require.NoError(t, sub.Close())
	assert.Empty(t, drain(t, sub))
}

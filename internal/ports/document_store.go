package ports

import "context"

// SnapshotEvent is one delivery on a subscription. Err is set for transient
// read failures; the subscription stays open.
type SnapshotEvent struct {
	Exists bool
	Data   map[string]any
	Err    error
}

type Subscription interface {
	Snapshots() <-chan SnapshotEvent
	Close() error
}

type DocumentStore interface {
	Subscribe(ctx context.Context, path string) (Subscription, error)
	// Write merges fields into the document at path, creating it when absent.
	// A nil field value clears that field.
	Write(ctx context.Context, path string, fields map[string]any) error
}

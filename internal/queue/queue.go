package queue

import (
	"context"
)

var IndexSyncQueue = "knuth:index:sync:queue"

// IndexQueue holds ids of documents whose index entry must be refreshed.
type IndexQueue interface {
	// Publish appends document ids to the queue.
	Publish(ctx context.Context, ids ...uint) error
	// Pop removes and returns up to n ids from the head of the queue.
	Pop(ctx context.Context, n int) ([]uint, error)
	// Len returns the number of pending ids.
	Len(ctx context.Context) (int64, error)
}

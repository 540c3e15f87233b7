package jobs

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/knuth/internal/queue"
	"github.com/emrgen/knuth/internal/service"
	"github.com/sirupsen/logrus"
)

// IndexQueueTask drains the index sync queue.
type IndexQueueTask struct {
	queue    queue.IndexQueue
	indexer  *service.IndexService
	batch    int
	schedule string
}

func NewIndexQueueTask(schedule string, batch int, q queue.IndexQueue, indexer *service.IndexService) *IndexQueueTask {
	return &IndexQueueTask{
		queue:    q,
		indexer:  indexer,
		batch:    batch,
		schedule: schedule,
	}
}

func (t *IndexQueueTask) Name() string {
	return "index_queue"
}

func (t *IndexQueueTask) Schedule() string {
	return t.schedule
}

// Run syncs queued documents until the queue is empty. Ids that fail are queued
// again and the run stops, leaving them for the next tick.
func (t *IndexQueueTask) Run(ctx context.Context) error {
	synced := 0
	for {
		ids, err := t.queue.Pop(ctx, t.batch)
		if err != nil {
			return fmt.Errorf("pop index queue: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		seen := mapset.NewThreadUnsafeSet[uint]()
		var failed []uint
		for _, id := range ids {
			if !seen.Add(id) {
				continue
			}
			if err := t.indexer.SyncDocumentByID(ctx, id); err != nil {
				logrus.Warnf("index sync of document %d failed: %v", id, err)
				failed = append(failed, id)
				continue
			}
			synced++
		}

		if len(failed) > 0 {
			if err := t.queue.Publish(ctx, failed...); err != nil {
				return fmt.Errorf("requeue %d documents: %w", len(failed), err)
			}
			return fmt.Errorf("%d documents failed to sync", len(failed))
		}

		if len(ids) < t.batch {
			break
		}
	}

	if synced > 0 {
		logrus.Infof("synced %d documents to the index", synced)
	}

	return nil
}

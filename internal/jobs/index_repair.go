package jobs

import (
	"context"
	"sync/atomic"

	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/service"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// IndexRepairTask creates the index entry of every document that has none.
type IndexRepairTask struct {
	store    store.Store
	index    index.Index
	indexer  *service.IndexService
	workers  int
	schedule string
}

func NewIndexRepairTask(schedule string, workers int, deps service.Deps) *IndexRepairTask {
	return &IndexRepairTask{
		store:    deps.Store,
		index:    deps.Index,
		indexer:  service.NewIndexService(deps),
		workers:  workers,
		schedule: schedule,
	}
}

func (t *IndexRepairTask) Name() string {
	return "index_repair"
}

func (t *IndexRepairTask) Schedule() string {
	return t.schedule
}

func (t *IndexRepairTask) Run(ctx context.Context) error {
	docs, err := t.store.ListDocuments(ctx)
	if err != nil {
		return err
	}

	var repaired atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for _, doc := range docs {
		g.Go(func() error {
			exists, err := t.index.Exists(ctx, doc.ID)
			if err != nil || exists {
				return err
			}

			rows, err := t.store.ListMetadata(ctx, doc.ID)
			if err != nil {
				return err
			}
			if _, err := t.indexer.IndexDocument(ctx, doc, rows); err != nil {
				return err
			}
			repaired.Add(1)

			return nil
		})
	}

	err = g.Wait()
	if n := repaired.Load(); n > 0 {
		logrus.Infof("index repair: created %d of %d entries", n, len(docs))
	}

	return err
}

package jobs

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/metrics"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
)

// BlobSweeper removes blobs named after documents that no longer exist.
// A blob is removed only once it was found orphaned by two consecutive runs.
type BlobSweeper struct {
	blobs      blob.Store
	store      store.DocumentStore
	schedule   string
	candidates mapset.Set[string]
}

func NewBlobSweeper(schedule string, blobs blob.Store, store store.DocumentStore) *BlobSweeper {
	return &BlobSweeper{
		blobs:      blobs,
		store:      store,
		schedule:   schedule,
		candidates: mapset.NewThreadUnsafeSet[string](),
	}
}

func (s *BlobSweeper) Name() string {
	return "blob_sweeper"
}

func (s *BlobSweeper) Schedule() string {
	return s.schedule
}

func (s *BlobSweeper) Run(ctx context.Context) error {
	names, err := s.blobs.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list blobs: %w", err)
	}

	orphans := mapset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		id, ok := blob.ParseID(name)
		if !ok {
			continue
		}
		exists, err := s.store.ExistsDocument(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			orphans.Add(name)
		}
	}

	confirmed := orphans.Intersect(s.candidates)
	var errs []error
	for _, name := range confirmed.ToSlice() {
		err := s.blobs.Remove(ctx, name)
		if err != nil && !errors.Is(err, blob.ErrNotFound) {
			metrics.BlobErrors.WithLabelValues("remove").Inc()
			errs = append(errs, fmt.Errorf("remove orphan blob %s: %w", name, err))
			continue
		}
		logrus.Infof("removed orphan blob %s", name)
	}

	s.candidates = orphans.Difference(confirmed)

	return errors.Join(errs...)
}

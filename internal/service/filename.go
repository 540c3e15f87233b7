package service

import (
	"context"
	"errors"

	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
)

// FilenameResolver finds the blob holding a document payload.
type FilenameResolver struct {
	store store.MetadataStore
	blobs blob.Store
}

func NewFilenameResolver(store store.MetadataStore, blobs blob.Store) *FilenameResolver {
	return &FilenameResolver{store: store, blobs: blobs}
}

// Resolve returns the blob name of the document payload.
// The filename metadata row wins over blobs found by name prefix.
func (r *FilenameResolver) Resolve(ctx context.Context, id uint) (string, bool, error) {
	row, err := r.store.GetMetadata(ctx, id, model.MetaFilename)
	if err == nil {
		return row.Value, true, nil
	}
	if !errors.Is(err, store.ErrMetadataNotFound) {
		return "", false, err
	}

	names, err := r.blobs.List(ctx, blob.Prefix(id))
	if err != nil {
		return "", false, err
	}
	if len(names) == 0 {
		return "", false, nil
	}
	if len(names) > 1 {
		logrus.Warnf("document %d has %d candidate blobs, using %s", id, len(names), names[0])
	}

	return names[0], true, nil
}

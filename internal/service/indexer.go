package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/metrics"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
)

// NewIndexService creates a new IndexService.
func NewIndexService(deps Deps) *IndexService {
	return &IndexService{
		store: deps.Store,
		index: deps.Index,
	}
}

// IndexService mirrors documents into the search index.
type IndexService struct {
	store store.Store
	index index.Index
}

// NewBody builds the index body of a document from its metadata rows.
// Tags keep their row order; for other keys the last row wins.
func NewBody(doc *model.Document, rows []*model.Metadata) *index.Body {
	body := &index.Body{
		Type:      doc.Type,
		Author:    doc.Author,
		Title:     doc.Title,
		DOI:       doc.DOI,
		Timestamp: doc.Timestamp,
		Meta:      make(map[string]string),
		Tags:      make([]string, 0),
	}

	for _, row := range rows {
		if row.Key == model.MetaTag {
			body.Tags = append(body.Tags, row.Value)
			continue
		}
		body.Meta[row.Key] = row.Value
	}

	return body
}

// IndexDocument writes the full entry of doc, replacing any existing one.
func (s *IndexService) IndexDocument(ctx context.Context, doc *model.Document, rows []*model.Metadata) (*index.Body, error) {
	body := NewBody(doc, rows)

	err := s.index.Index(ctx, doc.ID, body)
	metrics.IndexOperations.WithLabelValues("index", metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("index document %d: %w", doc.ID, err)
	}

	logrus.Debugf("indexed document %d", doc.ID)

	return body, nil
}

// IndexDocumentByID loads the document and its metadata and indexes them.
func (s *IndexService) IndexDocumentByID(ctx context.Context, id uint) (*index.Body, error) {
	doc, rows, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.IndexDocument(ctx, doc, rows)
}

// uploadFields are written only by uploads and have no relational source.
var uploadFields = []string{"content", "filename", "mimetype", "orig_filename"}

// SyncDocumentByID refreshes the entry of a document from the relational store.
// The entry is rebuilt so metadata keys removed from the store disappear, and
// the fields written by uploads are carried over; a missing entry is created;
// the entry of a deleted document is removed.
func (s *IndexService) SyncDocumentByID(ctx context.Context, id uint) error {
	doc, rows, err := s.load(ctx, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		err := s.index.Delete(ctx, id)
		metrics.IndexOperations.WithLabelValues("delete", metrics.Status(err)).Inc()
		return err
	}
	if err != nil {
		return err
	}

	current, err := s.index.Get(ctx, id)
	if err != nil && !errors.Is(err, index.ErrNotIndexed) {
		return fmt.Errorf("read index entry %d: %w", id, err)
	}

	if _, err := s.IndexDocument(ctx, doc, rows); err != nil {
		return err
	}

	kept := make(map[string]any)
	for _, field := range uploadFields {
		if value, ok := current[field]; ok {
			kept[field] = value
		}
	}
	if len(kept) == 0 {
		return nil
	}

	err = s.index.Update(ctx, id, kept)
	metrics.IndexOperations.WithLabelValues("update", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("update index entry %d: %w", id, err)
	}

	return nil
}

func (s *IndexService) load(ctx context.Context, id uint) (*model.Document, []*model.Metadata, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.store.ListMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return doc, rows, nil
}

package service

import (
	"context"
	"testing"

	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBody(t *testing.T) {
	doc := &model.Document{ID: 7, Type: model.TypeDocument, Title: "Concrete Mathematics", Author: "Graham"}
	body := NewBody(doc, []*model.Metadata{
		model.NewMetadata(7, model.MetaTag, "math"),
		model.NewMetadata(7, "source", "library"),
		model.NewMetadata(7, model.MetaTag, "discrete"),
		model.NewMetadata(7, "source", "shelf"),
	})

	assert.Equal(t, "Concrete Mathematics", body.Title)
	assert.Equal(t, []string{"math", "discrete"}, body.Tags)
	assert.Equal(t, map[string]string{"source": "shelf"}, body.Meta)

	empty := NewBody(doc, nil)
	assert.NotNil(t, empty.Tags)
	assert.NotNil(t, empty.Meta)
}

func TestIndexService_IndexDocumentByID(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, nil)

	id, err := s.docs.CreateDocument(ctx, CreateDocumentInput{Title: "TAOCP", Author: "Knuth", Tags: []string{"algorithms"}})
	require.NoError(t, err)

	body, err := s.indexer.IndexDocumentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"algorithms"}, body.Tags)

	first, err := s.env.Index.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "TAOCP", first["title"])
	assert.Equal(t, "Knuth", first["author"])

	_, err = s.indexer.IndexDocumentByID(ctx, id)
	require.NoError(t, err)
	second, err := s.env.Index.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second, "indexing twice leaves the same entry")

	_, err = s.indexer.IndexDocumentByID(ctx, 404)
	assert.Error(t, err)
}

func TestIndexService_SyncDocumentByID(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, nil)

	id, err := s.docs.CreateDocument(ctx, CreateDocumentInput{Title: "draft"})
	require.NoError(t, err)

	require.NoError(t, s.indexer.SyncDocumentByID(ctx, id))
	entry, err := s.env.Index.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "draft", entry["title"])

	require.NoError(t, s.env.Index.Update(ctx, id, map[string]any{"content": "uploaded text"}))
	_, err = s.docs.UpdateDocument(ctx, id, model.Attributes{model.FieldTitle: "final"})
	require.NoError(t, err)

	require.NoError(t, s.indexer.SyncDocumentByID(ctx, id))
	entry, err = s.env.Index.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "final", entry["title"])
	assert.Equal(t, "uploaded text", entry["content"], "sync keeps fields written by uploads")

	require.NoError(t, s.env.Store.CreateMetadata(ctx, model.NewMetadata(id, "pdf.subject", "stale")))
	require.NoError(t, s.indexer.SyncDocumentByID(ctx, id))
	require.NoError(t, s.env.Store.DeleteMetadataByKey(ctx, id, "pdf.subject"))
	require.NoError(t, s.indexer.SyncDocumentByID(ctx, id))
	entry, err = s.env.Index.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, entry["meta"], "removed metadata keys leave the entry")
	assert.Equal(t, "uploaded text", entry["content"])

	require.NoError(t, s.env.Store.DeleteDocument(ctx, id))
	require.NoError(t, s.indexer.SyncDocumentByID(ctx, id))
	_, err = s.env.Index.Get(ctx, id)
	assert.ErrorIs(t, err, index.ErrNotIndexed)
}

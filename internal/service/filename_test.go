package service

import (
	"context"
	"strings"
	"testing"

	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, nil)
	resolver := NewFilenameResolver(s.env.Store, s.env.Blobs)

	id, err := s.docs.CreateDocument(ctx, CreateDocumentInput{Title: "resolved"})
	require.NoError(t, err)

	name, ok, err := resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)

	require.NoError(t, s.env.Blobs.Save(ctx, blob.Name(id, "txt"), strings.NewReader("scan")))
	name, ok, err = resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, blob.Name(id, "txt"), name, "falls back to a blob named after the id")

	require.NoError(t, s.env.Store.CreateMetadata(ctx, model.NewMetadata(id, model.MetaFilename, blob.Name(id, "pdf"))))
	name, ok, err = resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, blob.Name(id, "pdf"), name, "the filename row wins over the blob scan")
}

func TestFilenameResolver_PrefixIsExact(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, nil)
	resolver := NewFilenameResolver(s.env.Store, s.env.Blobs)

	require.NoError(t, s.env.Blobs.Save(ctx, "12.txt", strings.NewReader("other document")))

	_, ok, err := resolver.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

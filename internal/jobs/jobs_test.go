package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/service"
	"github.com/emrgen/knuth/internal/tester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errIndexOffline = errors.New("index offline")

type indexBackend = index.Index

type failingIndex struct {
	indexBackend
}

func (failingIndex) Exists(context.Context, uint) (bool, error) {
	return false, errIndexOffline
}

func (failingIndex) Index(context.Context, uint, *index.Body) error {
	return errIndexOffline
}

func testDeps(env *tester.Env) service.Deps {
	return service.Deps{
		Store: env.Store,
		Blobs: env.Blobs,
		Index: env.Index,
		Queue: env.Queue,
	}
}

func TestIndexQueueTask_Run(t *testing.T) {
	ctx := context.Background()
	env := tester.Setup(t)
	deps := testDeps(env)
	docs := service.NewDocumentService(deps)

	var ids []uint
	for _, title := range []string{"one", "two", "three"} {
		id, err := docs.CreateDocument(ctx, service.CreateDocumentInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, env.Queue.Publish(ctx, ids[0]))

	task := NewIndexQueueTask("@every 10s", 2, env.Queue, service.NewIndexService(deps))
	require.NoError(t, task.Run(ctx))

	for _, id := range ids {
		exists, err := env.Index.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists, "document %d", id)
	}

	n, err := env.Queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexQueueTask_Requeue(t *testing.T) {
	ctx := context.Background()
	env := tester.Setup(t)
	deps := testDeps(env)
	deps.Index = failingIndex{indexBackend: env.Index}

	id, err := service.NewDocumentService(deps).CreateDocument(ctx, service.CreateDocumentInput{Title: "pending"})
	require.NoError(t, err)

	task := NewIndexQueueTask("@every 10s", 10, env.Queue, service.NewIndexService(deps))
	assert.Error(t, task.Run(ctx))

	pending, err := env.Queue.Pop(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{id}, pending)
}

func TestIndexRepairTask_Run(t *testing.T) {
	ctx := context.Background()
	env := tester.Setup(t)
	deps := testDeps(env)
	docs := service.NewDocumentService(deps)

	indexed, err := docs.CreateDocument(ctx, service.CreateDocumentInput{Title: "indexed"})
	require.NoError(t, err)
	missing, err := docs.CreateDocument(ctx, service.CreateDocumentInput{Title: "missing", Tags: []string{"lost"}})
	require.NoError(t, err)

	require.NoError(t, env.Index.Index(ctx, indexed, &index.Body{Title: "indexed"}))
	require.NoError(t, env.Index.Update(ctx, indexed, map[string]any{"content": "kept"}))

	task := NewIndexRepairTask("@every 1h", 2, deps)
	require.NoError(t, task.Run(ctx))

	entry, err := env.Index.Get(ctx, missing)
	require.NoError(t, err)
	assert.Equal(t, "missing", entry["title"])
	assert.Equal(t, []any{"lost"}, entry["tags"])

	entry, err = env.Index.Get(ctx, indexed)
	require.NoError(t, err)
	assert.Equal(t, "kept", entry["content"], "existing entries are left alone")
}

func TestBlobSweeper_Run(t *testing.T) {
	ctx := context.Background()
	env := tester.Setup(t)

	doc := &model.Document{Title: "alive"}
	require.NoError(t, env.Store.CreateDocument(ctx, doc))

	alive := blob.Name(doc.ID, "pdf")
	orphan := blob.Name(doc.ID+100, "pdf")
	foreign := "notes.txt"
	for _, name := range []string{alive, orphan, foreign} {
		require.NoError(t, env.Blobs.Save(ctx, name, strings.NewReader(name)))
	}

	sweeper := NewBlobSweeper("@every 24h", env.Blobs, env.Store)

	require.NoError(t, sweeper.Run(ctx))
	names, err := env.Blobs.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alive, orphan, foreign}, names, "first sighting only marks the orphan")

	require.NoError(t, sweeper.Run(ctx))
	names, err = env.Blobs.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alive, foreign}, names)
}

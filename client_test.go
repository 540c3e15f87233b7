package knuth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/knuth/internal/config"
	"github.com/emrgen/knuth/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	server := miniredis.RunT(t)

	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "knuth.db")},
		Redis:    config.RedisConfig{Addr: server.Addr()},
		Blob:     config.BlobConfig{Backend: "local", Root: filepath.Join(dir, "blobs")},
		Index:    config.IndexConfig{Backend: "redis", Compression: "brotli"},
		Jobs: config.JobsConfig{
			QueueSchedule:  "@every 10s",
			RepairSchedule: "@every 1h",
			SweepSchedule:  "@every 24h",
			BatchSize:      10,
			IndexWorkers:   2,
		},
	}
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, testConfig(t))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Migrate())

	id, err := client.Documents.CreateDocument(ctx, service.CreateDocumentInput{Title: "Surreal Numbers", Tags: []string{"fiction"}})
	require.NoError(t, err)

	filename, err := client.Uploads.UploadDocument(ctx, id, service.UploadedFile{Name: "surreal.tex", Body: strings.NewReader(`\title{Surreal Numbers}`)})
	require.NoError(t, err)

	record, err := client.Documents.RetrieveDocument(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, filename, record.Filename)
	assert.Equal(t, []string{"fiction"}, record.Tags)

	for name, check := range client.HealthChecks() {
		assert.NoError(t, check(ctx), name)
	}

	jobs := client.Jobs()
	require.Len(t, jobs, 3)
	for _, job := range jobs {
		assert.NoError(t, job.Run(ctx), job.Name())
	}

	require.NoError(t, client.Documents.DeleteDocument(ctx, id))
	_, ok, err := client.Resolver.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

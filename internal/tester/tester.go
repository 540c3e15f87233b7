package tester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/compress"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/queue"
	"github.com/emrgen/knuth/internal/store"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Env is a throwaway set of stores: a sqlite database, a blob directory and an
// in-memory redis holding the index and the sync queue.
type Env struct {
	DB        *gorm.DB
	Store     *store.GormStore
	Blobs     *blob.Local
	Miniredis *miniredis.Miniredis
	Redis     *redis.Client
	Index     *index.Redis
	Queue     *queue.Redis
}

// Setup creates an Env removed when the test ends.
func Setup(t testing.TB) *Env {
	t.Helper()

	_ = os.Setenv("ENV", "test")
	dir := t.TempDir()

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "knuth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := model.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	blobs, err := blob.NewLocal(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return &Env{
		DB:        db,
		Store:     store.NewGormStore(db),
		Blobs:     blobs,
		Miniredis: server,
		Redis:     client,
		Index:     index.NewRedis(client, compress.NewNop(), ""),
		Queue:     queue.NewRedis(client, ""),
	}
}

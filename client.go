// Package knuth wires the document repository services to the stores named by a configuration.
package knuth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/emrgen/knuth/internal/config"
	"github.com/emrgen/knuth/internal/extract"
	"github.com/emrgen/knuth/internal/jobs"
	"github.com/emrgen/knuth/internal/server"
	"github.com/emrgen/knuth/internal/service"
	"github.com/emrgen/knuth/internal/store"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var _ io.Closer = (*Client)(nil)

// Client owns the store connections and the services built on them.
type Client struct {
	cfg   *config.Config
	db    *gorm.DB
	rdb   *redis.Client
	store *store.GormStore
	deps  service.Deps

	Documents *service.DocumentService
	Uploads   *service.UploadService
	Indexer   *service.IndexService
	Resolver  *service.FilenameResolver
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	db, err := config.GetDb(cfg)
	if err != nil {
		return nil, err
	}
	rdb := config.GetRedis(cfg)

	c := &Client{cfg: cfg, db: db, rdb: rdb, store: store.NewGormStore(db)}

	blobs, err := config.GetBlobStore(ctx, cfg)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	idx, err := config.GetIndex(cfg, rdb)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}

	c.deps = service.Deps{
		Store: c.store,
		Blobs: blobs,
		Index: idx,
		Queue: config.GetQueue(cfg, rdb),
	}
	c.Documents = service.NewDocumentService(c.deps)
	c.Uploads = service.NewUploadService(c.deps, extract.NewPDFInfo())
	c.Indexer = service.NewIndexService(c.deps)
	c.Resolver = service.NewFilenameResolver(c.store, blobs)

	return c, nil
}

func (c *Client) Config() *config.Config {
	return c.cfg
}

// Migrate creates or updates the document tables.
func (c *Client) Migrate() error {
	return c.store.Migrate()
}

// Jobs returns the background jobs of the worker.
func (c *Client) Jobs() []jobs.Job {
	j := c.cfg.Jobs

	return []jobs.Job{
		jobs.NewIndexQueueTask(j.QueueSchedule, j.BatchSize, c.deps.Queue, c.Indexer),
		jobs.NewIndexRepairTask(j.RepairSchedule, j.IndexWorkers, c.deps),
		jobs.NewBlobSweeper(j.SweepSchedule, c.deps.Blobs, c.store),
	}
}

// HealthChecks returns a check per backing store.
func (c *Client) HealthChecks() map[string]server.HealthCheck {
	return map[string]server.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return c.rdb.Ping(ctx).Err()
		},
	}
}

func (c *Client) Close() error {
	var errs []error
	if sqlDB, err := c.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	errs = append(errs, c.rdb.Close())

	return errors.Join(errs...)
}

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/compress"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/queue"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupLogging applies the log level and format to the standard logrus logger.
func SetupLogging(cfg LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return nil
}

// GetDb opens the relational database.
func GetDb(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	mode := logger.Silent
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		mode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(mode)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}

	return db, nil
}

func GetRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// GetBlobStore opens the configured blob backend.
func GetBlobStore(ctx context.Context, cfg *Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "local":
		return blob.NewLocal(cfg.Blob.Root)
	case "minio":
		m := cfg.Blob.Minio
		return blob.NewMinio(ctx, blob.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			Secure:    m.Secure,
		})
	}

	return nil, fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
}

// GetIndex opens the configured search index. rdb is used by the redis backend.
func GetIndex(cfg *Config, rdb *redis.Client) (index.Index, error) {
	switch cfg.Index.Backend {
	case "redis":
		encoder, err := compress.New(cfg.Index.Compression)
		if err != nil {
			return nil, err
		}
		return index.NewRedis(rdb, encoder, cfg.Index.Prefix), nil
	case "elastic":
		e := cfg.Index.Elastic
		return index.NewElastic(index.ElasticConfig{
			Addresses: e.Addresses,
			Username:  e.Username,
			Password:  e.Password,
			Index:     e.Index,
		})
	}

	return nil, fmt.Errorf("unsupported index backend %q", cfg.Index.Backend)
}

func GetQueue(cfg *Config, rdb *redis.Client) queue.IndexQueue {
	return queue.NewRedis(rdb, cfg.Queue.Key)
}

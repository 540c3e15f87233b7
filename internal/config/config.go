package config

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "KNUTH"
	configFileName = "knuth"
)

// Config holds the settings of the knuth CLI and worker.
type Config struct {
	Env      string
	Database DatabaseConfig
	Redis    RedisConfig
	Blob     BlobConfig
	Index    IndexConfig
	Queue    QueueConfig
	Jobs     JobsConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite.
	Driver string
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BlobConfig struct {
	// Backend is local or minio.
	Backend string
	Root    string
	Minio   MinioConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

type IndexConfig struct {
	// Backend is redis or elastic.
	Backend string
	// Compression encodes redis entries: none, gzip, brotli or lz4.
	Compression string
	Prefix      string
	Elastic     ElasticConfig
}

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type QueueConfig struct {
	Key string
}

type JobsConfig struct {
	QueueSchedule  string
	RepairSchedule string
	SweepSchedule  string
	BatchSize      int
	IndexWorkers   int
}

type WorkerConfig struct {
	MetricsAddr string
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".knuth/knuth.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("blob.backend", "local")
	v.SetDefault("blob.root", ".knuth/blobs")
	v.SetDefault("blob.minio.endpoint", "localhost:9000")
	v.SetDefault("blob.minio.access_key", "")
	v.SetDefault("blob.minio.secret_key", "")
	v.SetDefault("blob.minio.bucket", "knuth")
	v.SetDefault("blob.minio.secure", false)

	v.SetDefault("index.backend", "redis")
	v.SetDefault("index.compression", "gzip")
	v.SetDefault("index.prefix", "knuth:document:")
	v.SetDefault("index.elastic.addresses", "http://localhost:9200")
	v.SetDefault("index.elastic.username", "")
	v.SetDefault("index.elastic.password", "")
	v.SetDefault("index.elastic.index", "knuth")

	v.SetDefault("queue.key", "knuth:index:sync:queue")

	v.SetDefault("jobs.queue_schedule", "@every 10s")
	v.SetDefault("jobs.repair_schedule", "@every 1h")
	v.SetDefault("jobs.sweep_schedule", "@every 24h")
	v.SetDefault("jobs.batch_size", 100)
	v.SetDefault("jobs.index_workers", 4)

	v.SetDefault("worker.metrics_addr", ":9090")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads the configuration from KNUTH_* environment variables, an optional
// .env file and an optional knuth.yml in the working directory or ~/.config/knuth.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/knuth")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		logrus.Debugf("using config file %s", v.ConfigFileUsed())
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env: v.GetString("env"),
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Blob: BlobConfig{
			Backend: v.GetString("blob.backend"),
			Root:    v.GetString("blob.root"),
			Minio: MinioConfig{
				Endpoint:  v.GetString("blob.minio.endpoint"),
				AccessKey: v.GetString("blob.minio.access_key"),
				SecretKey: v.GetString("blob.minio.secret_key"),
				Bucket:    v.GetString("blob.minio.bucket"),
				Secure:    v.GetBool("blob.minio.secure"),
			},
		},
		Index: IndexConfig{
			Backend:     v.GetString("index.backend"),
			Compression: v.GetString("index.compression"),
			Prefix:      v.GetString("index.prefix"),
			Elastic: ElasticConfig{
				Addresses: splitList(v.GetStringSlice("index.elastic.addresses")),
				Username:  v.GetString("index.elastic.username"),
				Password:  v.GetString("index.elastic.password"),
				Index:     v.GetString("index.elastic.index"),
			},
		},
		Queue: QueueConfig{
			Key: v.GetString("queue.key"),
		},
		Jobs: JobsConfig{
			QueueSchedule:  v.GetString("jobs.queue_schedule"),
			RepairSchedule: v.GetString("jobs.repair_schedule"),
			SweepSchedule:  v.GetString("jobs.sweep_schedule"),
			BatchSize:      v.GetInt("jobs.batch_size"),
			IndexWorkers:   v.GetInt("jobs.index_workers"),
		},
		Worker: WorkerConfig{
			MetricsAddr: v.GetString("worker.metrics_addr"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

// splitList accepts both yaml lists and comma separated environment values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Database),
		validation.Field(&c.Blob),
		validation.Field(&c.Index),
		validation.Field(&c.Jobs),
		validation.Field(&c.Log),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("postgres", "sqlite")),
		validation.Field(&c.DSN, validation.Required),
	)
}

func (c BlobConfig) Validate() error {
	minio := c.Backend == "minio"

	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In("local", "minio")),
		validation.Field(&c.Root, validation.When(c.Backend == "local", validation.Required)),
		validation.Field(&c.Minio, validation.When(minio, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Minio,
				validation.Field(&c.Minio.Endpoint, validation.Required),
				validation.Field(&c.Minio.Bucket, validation.Required, validation.Length(3, 63)),
			)
		}))),
	)
}

func (c IndexConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In("redis", "elastic")),
		validation.Field(&c.Compression, validation.In("none", "nop", "gzip", "brotli", "lz4")),
		validation.Field(&c.Elastic, validation.When(c.Backend == "elastic", validation.By(func(any) error {
			return validation.ValidateStruct(&c.Elastic,
				validation.Field(&c.Elastic.Addresses, validation.Required),
			)
		}))),
	)
}

func (c JobsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.QueueSchedule, validation.Required),
		validation.Field(&c.RepairSchedule, validation.Required),
		validation.Field(&c.SweepSchedule, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.IndexWorkers, validation.Required, validation.Min(1)),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.By(func(value any) error {
			_, err := logrus.ParseLevel(value.(string))
			return err
		})),
		validation.Field(&c.Format, validation.In("text", "json")),
	)
}

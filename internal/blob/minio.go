package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/emrgen/knuth/internal/extract"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

var _ Store = (*Minio)(nil)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// Minio keeps blobs as objects in an S3 compatible bucket.
type Minio struct {
	client *minio.Client
	bucket string
}

func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logrus.Infof("created blob bucket %s", cfg.Bucket)
	}

	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func (m *Minio) Save(ctx context.Context, name string, r io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}

	opts := minio.PutObjectOptions{}
	if mimetype, ok := extract.MimeType(strings.TrimPrefix(path.Ext(name), ".")); ok {
		opts.ContentType = mimetype
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, r, -1, opts)
	if err != nil {
		return fmt.Errorf("put blob %s: %w", name, err)
	}

	return nil
}

func (m *Minio) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := m.stat(ctx, name); err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", name, err)
	}

	return obj, nil
}

// Remove stats the object first since RemoveObject succeeds on missing keys.
func (m *Minio) Remove(ctx context.Context, name string) error {
	if err := m.stat(ctx, name); err != nil {
		return err
	}

	if err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove blob %s: %w", name, err)
	}

	return nil
}

func (m *Minio) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list blobs: %w", obj.Err)
		}
		names = append(names, obj.Key)
	}

	return names, nil
}

func (m *Minio) stat(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	_, err := m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("stat blob %s: %w", name, err)
	}

	return nil
}

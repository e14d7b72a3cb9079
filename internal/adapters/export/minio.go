// Package export uploads message log exports to object storage.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseTLS    bool
	Bucket    string
	BasePath  string
}

type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type MinIO struct {
	store  objectStore
	bucket string
	base   string
	now    func() time.Time
}

func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio: endpoint and bucket are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
	})
	if err != nil {
		return nil, err
	}
	return newMinIO(mc, cfg), nil
}

func newMinIO(store objectStore, cfg MinIOConfig) *MinIO {
	base := strings.Trim(cfg.BasePath, "/")
	if base == "" {
		base = "telegraph"
	}
	return &MinIO{store: store, bucket: cfg.Bucket, base: base, now: time.Now}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.store.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return m.store.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload stores content under a date partitioned path and returns the object name.
func (m *MinIO) Upload(ctx context.Context, name, contentType string, content []byte) (string, error) {
	object := ObjectPath(m.base, m.now(), name)
	_, err := m.store.PutObject(ctx, m.bucket, object, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return object, nil
}

func ObjectPath(base string, t time.Time, file string) string {
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/%s",
		base, t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), file)
}

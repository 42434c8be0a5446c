package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStore keeps media in one bucket, one prefix per school.
type MinIOStore struct {
	cli    *minio.Client
	bucket string
}

var _ Store = (*MinIOStore)(nil)

func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinIOStore{cli: client, bucket: cfg.Bucket}, nil
}

func (s *MinIOStore) Put(ctx context.Context, schoolID string, up *Upload) (string, error) {
	ref := objectName(schoolID, up)
	_, err := s.cli.PutObject(ctx, s.bucket, ref, up.Reader, up.Size, minio.PutObjectOptions{
		ContentType: normalizeType(up.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", ref, err)
	}
	return ref, nil
}

func (s *MinIOStore) Release(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if err := s.cli.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", ref, err)
	}
	return nil
}

// SignedURL presigns a GET for ref. The bucket itself stays private.
func (s *MinIOStore) SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	if ref == "" {
		return "", ErrNotFound
	}
	u, err := s.cli.PresignedGetObject(ctx, s.bucket, ref, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", ref, err)
	}
	return u.String(), nil
}

func objectName(schoolID string, up *Upload) string {
	return schoolID + "/" + uuid.New().String() + extension(up)
}

package storage

import (
	"context"
	"fmt"
	"strings"

	"stuti/apperr"
	"stuti/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to MinIO and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, cfg config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	found, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !found {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		log.WithField("bucket", cfg.Bucket).Info("Created image bucket")
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores img under dir with a fresh uuid name, so repeated uploads of
// the same file never share a URL.
func (s *MinioStore) Upload(ctx context.Context, dir string, img *Image) (string, error) {
	objectName := dir + "/" + uuid.New().String() + Ext(img.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, img.Body, img.Size, minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.FailedUpload, err)
	}

	url := s.URL(objectName)
	log.WithFields(log.Fields{
		"object": objectName,
		"size":   img.Size,
	}).Debug("Uploaded image")
	return url, nil
}

func (s *MinioStore) Delete(ctx context.Context, url string) error {
	objectName, ok := s.ObjectName(url)
	if !ok {
		return apperr.Newf(apperr.FailedDelete, "foreign url %q", url)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return apperr.Wrap(apperr.FailedDelete, err)
	}
	return nil
}

func (s *MinioStore) URL(objectName string) string {
	return s.publicURL + "/" + s.bucket + "/" + objectName
}

// ObjectName reverses URL. It reports false for URLs outside this bucket.
func (s *MinioStore) ObjectName(url string) (string, bool) {
	prefix := s.publicURL + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

// Package minio stores appeal documents in S3-compatible object storage.
// Documents are grouped under one folder prefix per appeal and stage so a
// stage publication can point recipients at a single folder.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
	"github.com/openappeals/casework/pkg/errors"
	"github.com/openappeals/casework/pkg/types/common"
)

// Document describes one stored object.
type Document struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Store wraps the MinIO client for appeal document folders.
type Store struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewStore connects to object storage and ensures the bucket exists.
func NewStore(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "creating object storage client")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "checking bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeExternalService, "creating bucket")
		}
		log.Info("created document bucket", logging.String("bucket", cfg.Bucket))
	}

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        log.Named("minio"),
	}, nil
}

// FolderKey is the object prefix for one appeal stage's documents.
func FolderKey(appealID common.ID, stage string) string {
	return fmt.Sprintf("appeals/%s/%s/", appealID, stage)
}

// Put stores a document under the appeal stage folder and returns its key.
func (s *Store) Put(ctx context.Context, appealID common.ID, stage, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := FolderKey(appealID, stage) + filename
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "storing document")
	}
	s.logger.Debug("document stored",
		logging.String("appeal_id", string(appealID)),
		logging.String("key", key))
	return key, nil
}

// List returns the documents under an appeal stage folder.
func (s *Store) List(ctx context.Context, appealID common.ID, stage string) ([]Document, error) {
	prefix := FolderKey(appealID, stage)
	var out []Document
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeExternalService, "listing documents")
		}
		out = append(out, Document{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// PresignedGet returns a time-limited download URL for a document key.
func (s *Store) PresignedGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "presigning document url")
	}
	return u.String(), nil
}

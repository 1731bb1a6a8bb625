package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const DefaultHistoryObject = "search_history.json"

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Object    string
}

// MinioHistoryStorage keeps the encoded history as one object in a bucket.
type MinioHistoryStorage struct {
	client *minio.Client
	bucket string
	object string
	logger logger.Logger
}

var _ ports.HistoryStorage = (*MinioHistoryStorage)(nil)

func NewMinioHistoryStorage(ctx context.Context, opts MinioOptions, log logger.Logger) (*MinioHistoryStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Minio client: %w", err)
	}

	object := opts.Object
	if object == "" {
		object = DefaultHistoryObject
	}
	s := &MinioHistoryStorage{
		client: client,
		bucket: opts.Bucket,
		object: object,
		logger: log.WithField("component", "history_minio"),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.ensureBucket(checkCtx); err != nil {
		return nil, err
	}

	s.logger.Info("Minio history storage initialized successfully")
	return s, nil
}

// NewMinioHistoryStorageWithClient wraps an existing client without checking the bucket.
func NewMinioHistoryStorageWithClient(client *minio.Client, bucket, object string, log logger.Logger) *MinioHistoryStorage {
	if object == "" {
		object = DefaultHistoryObject
	}
	return &MinioHistoryStorage{
		client: client,
		bucket: bucket,
		object: object,
		logger: log.WithField("component", "history_minio"),
	}
}

func (s *MinioHistoryStorage) Load(ctx context.Context) ([]string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.readError(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isMissingObject(err) {
			return []string{}, nil
		}
		return nil, s.readError(err)
	}

	cities, err := DecodeHistory(data)
	if err != nil {
		return nil, &entities.PersistenceError{Op: "decode", Path: s.path(), Err: err}
	}
	return cities, nil
}

func (s *MinioHistoryStorage) Save(ctx context.Context, cities []string) error {
	data, err := EncodeHistory(cities)
	if err != nil {
		return &entities.PersistenceError{Op: "encode", Path: s.path(), Err: err}
	}

	_, err = s.client.PutObject(ctx, s.bucket, s.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return &entities.PersistenceError{Op: "write", Path: s.path(), Err: err}
	}

	s.logger.Debugf("Uploaded %d history entries to %s", len(cities), s.path())
	return nil
}

func (s *MinioHistoryStorage) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *MinioHistoryStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	s.logger.Infof("Created bucket: %s", s.bucket)
	return nil
}

func (s *MinioHistoryStorage) readError(err error) error {
	return &entities.PersistenceError{Op: "read", Path: s.path(), Err: err}
}

func (s *MinioHistoryStorage) path() string {
	return s.bucket + "/" + s.object
}

func isMissingObject(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

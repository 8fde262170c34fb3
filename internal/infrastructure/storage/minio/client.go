// Package minio stores the source tender documents. Only the object key
// travels through the event bus and the database; the document body lives
// here until the extraction worker fetches it.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/Tender-Intelligence/internal/config"
	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

var ErrClientClosed = errors.New(errors.ErrCodeStorageError, "minio client is closed")

// API is the subset of the minio-go client the platform uses. Abstracted for
// testing.
type API interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error)
}

// Client wraps the object-storage connection and the platform's single
// document bucket.
type Client struct {
	api           API
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewClient connects to the endpoint described by cfg and ensures the
// document bucket exists.
func NewClient(cfg config.MinIOConfig, logger logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio endpoint required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio bucket required")
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	presignExpiry := cfg.PresignExpiry
	if presignExpiry == 0 {
		presignExpiry = time.Hour
	}

	c := &Client{
		api:           api,
		bucket:        cfg.Bucket,
		presignExpiry: presignExpiry,
		logger:        logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API (for testing). The bucket is not
// verified.
func NewClientWithAPI(api API, bucket string, logger logging.Logger) *Client {
	return &Client{
		api:           api,
		bucket:        bucket,
		presignExpiry: time.Hour,
		logger:        logger,
	}
}

// Bucket returns the name of the document bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// API exposes the underlying storage API.
func (c *Client) API() API {
	return c.api
}

// HealthCheck verifies that the bucket is reachable and present.
func (c *Client) HealthCheck(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "bucket check failed")
	}
	if !exists {
		return errors.New(errors.ErrCodeStorageError, "document bucket missing")
	}
	return nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket")
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.bucket))
	return nil
}

//Personal.AI order the ending

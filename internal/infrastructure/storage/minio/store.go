package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/Tender-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrEmptyDocument  = errors.New(errors.ErrCodeValidation, "document body is empty")
)

// documentPrefix groups all source documents under one key namespace.
const documentPrefix = "documents/"

// StoredObject describes an uploaded document.
type StoredObject struct {
	ObjectKey   string    `json:"object_key"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ObjectInfo describes a stored document without its body.
type ObjectInfo struct {
	ObjectKey    string    `json:"object_key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
}

// DocumentStore persists and retrieves source tender documents in the
// platform's bucket.
type DocumentStore struct {
	client *Client
	logger logging.Logger
}

// NewDocumentStore returns a store over the shared client.
func NewDocumentStore(client *Client, logger logging.Logger) *DocumentStore {
	return &DocumentStore{client: client, logger: logger}
}

// ObjectKey derives the storage key of a document from its id and content
// type.
func ObjectKey(documentID, contentType string) string {
	return documentPrefix + documentID + extensionFor(contentType)
}

// Put uploads a document body. An empty content type is sniffed from the
// first bytes.
func (s *DocumentStore) Put(ctx context.Context, documentID string, data []byte, contentType string) (*StoredObject, error) {
	if documentID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "document id required")
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if contentType == "" {
		contentType = sniffContentType(data)
	}

	key := ObjectKey(documentID, contentType)
	info, err := s.client.API().PutObject(ctx, s.client.Bucket(), key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed")
	}

	s.logger.Debug("Document stored",
		logging.String("object_key", key),
		logging.Int("size", len(data)))
	return &StoredObject{
		ObjectKey:   key,
		ETag:        info.ETag,
		Size:        info.Size,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Get downloads a document body by its object key.
func (s *DocumentStore) Get(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.API().GetObject(ctx, s.client.Bucket(), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "read failed")
	}
	return data, nil
}

// Stat returns object metadata without downloading the body.
func (s *DocumentStore) Stat(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	info, err := s.client.API().StatObject(ctx, s.client.Bucket(), objectKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return &ObjectInfo{
		ObjectKey:    objectKey,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Exists reports whether the object is present.
func (s *DocumentStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.Stat(ctx, objectKey)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Delete removes a stored document. Deleting a missing object is not an
// error.
func (s *DocumentStore) Delete(ctx context.Context, objectKey string) error {
	err := s.client.API().RemoveObject(ctx, s.client.Bucket(), objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed")
	}
	return nil
}

// List enumerates stored documents under the documents namespace.
func (s *DocumentStore) List(ctx context.Context, limit int) ([]*ObjectInfo, error) {
	if limit <= 0 {
		limit = 1000
	}
	objects := s.client.API().ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{
		Prefix:    documentPrefix,
		Recursive: true,
	})

	var out []*ObjectInfo
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed")
		}
		out = append(out, &ObjectInfo{
			ObjectKey:    obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// PresignedGetURL returns a time-limited download URL for a stored document.
func (s *DocumentStore) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = s.client.presignExpiry
	}
	u, err := s.client.API().PresignedGetObject(ctx, s.client.Bucket(), objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed")
	}
	return u.String(), nil
}

// PresignedPutURL returns a time-limited upload URL so large documents can
// bypass the API server.
func (s *DocumentStore) PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = s.client.presignExpiry
	}
	u, err := s.client.API().PresignedPutObject(ctx, s.client.Bucket(), objectKey, expiry)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed")
	}
	return u.String(), nil
}

func sniffContentType(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return http.DetectContentType(data[:n])
}

// extensionFor maps the content types the platform accepts onto file
// extensions. Unknown types keep a bare key.
func extensionFor(contentType string) string {
	ct := contentType
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "text/plain":
		return ".txt"
	case "application/pdf":
		return ".pdf"
	case "text/html":
		return ".html"
	case "application/json":
		return ".json"
	default:
		return ""
	}
}

// DocumentIDFromKey recovers the document id from an object key, for
// reconciliation jobs walking the bucket.
func DocumentIDFromKey(objectKey string) string {
	base := path.Base(objectKey)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

//Personal.AI order the ending

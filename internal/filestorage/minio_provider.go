package filestorage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/clipstash/clipstash/internal/usecase"
)

type MinIOStorage struct {
	client *minio.Client
	bucket string
}

func NewMinIOStorage(endpoint, accessKeyID, secretAccessKey, bucket string, secure bool) (*MinIOStorage, error) {
	m, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	return &MinIOStorage{client: m, bucket: bucket}, nil
}

// GetUploadURL presigns a PUT for the given key so clients push bytes
// straight to the object store.
func (f *MinIOStorage) GetUploadURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	u, err := f.client.PresignedPutObject(ctx, f.bucket, key, expire)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (f *MinIOStorage) GetDownloadURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	u, err := f.client.PresignedGetObject(ctx, f.bucket, key, expire, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (f *MinIOStorage) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := f.client.PutObject(ctx, f.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// GetObject returns the object's body and size. The size comes from a Stat
// on the handle, so a missing key surfaces here rather than on first read.
func (f *MinIOStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, convertErr(err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, convertErr(err)
	}
	return obj, info.Size, nil
}

// RemoveObjects deletes the given keys, collecting per-key failures.
// Missing keys are not errors; removal is idempotent.
func (f *MinIOStorage) RemoveObjects(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := f.client.RemoveObject(ctx, f.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, convertErr(err))
		}
	}
	return errors.Join(errs...)
}

func convertErr(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return &usecase.NotFoundError{Resource: "object"}
	}
	return err
}

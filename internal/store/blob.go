package store

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// BlobStorage is a Storage rooted at a prefix within a MinIO (or any
// S3-compatible) bucket, grounded on the teacher's minioFileService.
type BlobStorage struct {
	client     *minio.Client
	bucketName string
	prefix     string
}

// NewBlobStorage connects to endpoint and ensures bucketName exists.
func NewBlobStorage(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*BlobStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "initializing blob client", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "checking bucket", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "creating bucket", err)
		}
	}

	return &BlobStorage{client: client, bucketName: bucketName}, nil
}

func (s *BlobStorage) object(key string) string {
	return path.Join(s.prefix, key)
}

func (s *BlobStorage) Find(ctx context.Context, pattern string) ([]string, error) {
	var matches []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "listing objects", obj.Err)
		}
		rel := stripPrefix(obj.Key, s.prefix)
		ok, err := path.Match(pattern, rel)
		if err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "matching pattern", err)
		}
		if ok {
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *BlobStorage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "getting object", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "reading object", err)
	}
	return data, nil
}

func (s *BlobStorage) OpenReader(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "opening object", err)
	}
	return obj, nil
}

func (s *BlobStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, s.bucketName, s.object(key), bytes.NewReader(value), int64(len(value)), minio.PutObjectOptions{})
	if err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "putting object", err)
	}
	return nil
}

func (s *BlobStorage) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, s.object(key), minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, pipelineerr.Wrap(pipelineerr.StorageError, "stat object", err)
	}
	return true, nil
}

func (s *BlobStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, s.object(key), minio.RemoveObjectOptions{}); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "deleting object", err)
	}
	return nil
}

func (s *BlobStorage) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStorage) Child(name string) interfaces.Storage {
	return &BlobStorage{client: s.client, bucketName: s.bucketName, prefix: path.Join(s.prefix, name)}
}

func (s *BlobStorage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, pipelineerr.Wrap(pipelineerr.StorageError, "listing objects", obj.Err)
		}
		keys = append(keys, stripPrefix(obj.Key, s.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *BlobStorage) CreationDate(ctx context.Context, key string) (time.Time, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, s.object(key), minio.StatObjectOptions{})
	if err != nil {
		return time.Time{}, pipelineerr.Wrap(pipelineerr.StorageError, "stat object", err)
	}
	return info.LastModified, nil
}

var (
	_ interfaces.Storage    = (*BlobStorage)(nil)
	_ interfaces.BlobReader = (*BlobStorage)(nil)
)

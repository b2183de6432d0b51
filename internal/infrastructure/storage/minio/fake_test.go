package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// memoryAPI is an in-memory MinIOAPI.
type memoryAPI struct {
	mu        sync.Mutex
	buckets   map[string]map[string][]byte
	meta      map[string]map[string]string
	lifecycle map[string]*lifecycle.Configuration
	putErr    error
	existsErr error
}

func newMemoryAPI() *memoryAPI {
	return &memoryAPI{
		buckets:   map[string]map[string][]byte{},
		meta:      map[string]map[string]string{},
		lifecycle: map[string]*lifecycle.Configuration{},
	}
}

func (m *memoryAPI) ListBuckets(context.Context) ([]minio.BucketInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]minio.BucketInfo, 0, len(m.buckets))
	for name := range m.buckets {
		out = append(out, minio.BucketInfo{Name: name})
	}
	return out, nil
}

func (m *memoryAPI) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *memoryAPI) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = map[string][]byte{}
	return nil
}

func (m *memoryAPI) SetBucketLifecycle(_ context.Context, bucket string, cfg *lifecycle.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycle[bucket] = cfg
	return nil
}

func (m *memoryAPI) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putErr != nil {
		return minio.UploadInfo{}, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return minio.UploadInfo{}, minio.ErrorResponse{Code: "NoSuchBucket"}
	}
	b[key] = data
	m.meta[bucket+"/"+key] = opts.UserMetadata
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data)), ETag: "etag"}, nil
}

func (m *memoryAPI) GetObject(_ context.Context, bucket, key string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryAPI) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryAPI) RemoveObject(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *memoryAPI) PresignedGetObject(_ context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("X-Amz-Expires", expiry.String())
	return &url.URL{Scheme: "http", Host: "minio.local", Path: "/" + bucket + "/" + key, RawQuery: q.Encode()}, nil
}

//Personal.AI order the ending

package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStore struct {
	bk  *oss.Bucket
	ttl time.Duration
}

func OpenOSS(_ context.Context, c Config) (Store, error) {
	cli, err := oss.New(c.Endpoint, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, err
	}
	bk, err := cli.Bucket(c.Bucket)
	if err != nil {
		return nil, err
	}
	return &ossStore{bk: bk, ttl: ttlOrDefault(c.SignedURLTTL)}, nil
}

func (s *ossStore) Put(_ context.Context, key string, r ReadSeeker, _ int64, contentType string) error {
	key = sanitizeKey(key)
	opts := []oss.Option{}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bk.PutObject(key, r, opts...)
}

func (s *ossStore) Exists(_ context.Context, key string) (bool, error) {
	return s.bk.IsObjectExist(sanitizeKey(key))
}

func (s *ossStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bk.GetObject(sanitizeKey(key))
	if se, ok := err.(oss.ServiceError); ok && se.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	return rc, err
}

func (s *ossStore) SignedURL(_ context.Context, key string, method string, expiry time.Duration) (string, error) {
	key = sanitizeKey(key)
	if expiry <= 0 {
		expiry = s.ttl
	}
	sec := int64(expiry / time.Second)
	var httpMethod oss.HTTPMethod
	switch method {
	case "PUT":
		httpMethod = oss.HTTPPut
	case "DELETE":
		httpMethod = oss.HTTPDelete
	case "GET", "":
		httpMethod = oss.HTTPGet
	default:
		return "", fmt.Errorf("unsupported method: %s", method)
	}
	return s.bk.SignURL(key, httpMethod, sec)
}

func (s *ossStore) Delete(_ context.Context, key string) error {
	return s.bk.DeleteObject(sanitizeKey(key))
}

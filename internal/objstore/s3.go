package objstore

import (
	"context"
	"io"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

type s3Store struct {
	bk  *blob.Bucket
	ttl time.Duration
}

func OpenS3(ctx context.Context, c Config) (Store, error) {
	bk, err := blob.OpenBucket(ctx, buildS3URL(c))
	if err != nil {
		return nil, err
	}
	return &s3Store{bk: bk, ttl: ttlOrDefault(c.SignedURLTTL)}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, r ReadSeeker, _ int64, contentType string) error {
	key = sanitizeKey(key)
	w, err := s.bk.NewWriter(ctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *s3Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.bk.Exists(ctx, sanitizeKey(key))
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rd, err := s.bk.NewReader(ctx, sanitizeKey(key), nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, ErrNotFound
	}
	return rd, err
}

func (s *s3Store) SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error) {
	key = sanitizeKey(key)
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignedURL(ctx, key, &blob.SignedURLOptions{Method: method, Expiry: expiry})
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	return s.bk.Delete(ctx, sanitizeKey(key))
}

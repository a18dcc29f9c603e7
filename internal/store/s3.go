package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cardsync/internal/existing"
	"cardsync/internal/keys"
)

// S3Options configures an S3 store.
type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	CacheControl string
	// ListPrefix narrows listings to the layout's literal directory.
	ListPrefix string
}

// S3 writes artifacts to an S3-compatible bucket.
type S3 struct {
	client       *minio.Client
	bucket       string
	cacheControl string
	listPrefix   string
	list         listing
}

// NewS3 constructs an S3 store. Endpoint is host[:port] without a scheme.
func NewS3(opts S3Options) (*S3, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is empty")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is empty")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       opts.UseSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3{
		client:       client,
		bucket:       opts.Bucket,
		cacheControl: opts.CacheControl,
		listPrefix:   opts.ListPrefix,
	}, nil
}

// Put uploads data under key, replacing any existing object.
func (s *S3) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: s.cacheControl,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// ListExisting pages object keys that match the query pattern.
func (s *S3) ListExisting(ctx context.Context, q existing.Query) ([]string, error) {
	return s.list.page(ctx, q, s.listAll)
}

// Ping verifies the bucket is reachable.
func (s *S3) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *S3) listAll(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.listPrefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return names, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.listPrefix, obj.Err)
		}
		if pattern == "" || keys.Match(pattern, obj.Key) {
			names = append(names, obj.Key)
		}
	}
	return names, nil
}

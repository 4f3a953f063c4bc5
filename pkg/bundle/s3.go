package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/pageroutes/pkg/deferred"
)

// ObjectAPI is the subset of *s3.Client used by S3Source.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// EnvCredentials reads static credentials from AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
func EnvCredentials() aws.CredentialsProvider {
	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id := os.Getenv("AWS_ACCESS_KEY_ID")
		secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}, nil
	})
}

// NewS3Client creates a client using environment credentials. A non-empty
// endpoint targets an S3-compatible store with path-style addressing.
func NewS3Client(region, endpoint string) *s3.Client {
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(EnvCredentials()),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// S3Source loads bundles from an S3 bucket.
//
// Example usage:
//
//	client := bundle.NewS3Client("eu-west-1", "")
//	src := bundle.NewS3Source(client, "my-bucket", "pages/")
//	loader := src.Loader("home/index.html")
type S3Source struct {
	client  ObjectAPI
	bucket  string
	prefix  string
	maxSize int64
	logger  *slog.Logger

	// Concurrent fetches of one key share a single GetObject call.
	group singleflight.Group
}

// NewS3Source creates a source reading keys under prefix in bucket.
func NewS3Source(client ObjectAPI, bucket, prefix string) *S3Source {
	return &S3Source{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: 10 << 20,
		logger:  slog.Default(),
	}
}

// WithMaxSize sets the largest bundle accepted, in bytes. Zero means no
// limit.
func (s *S3Source) WithMaxSize(n int64) *S3Source {
	s.maxSize = n
	return s
}

// WithLogger sets the logger.
func (s *S3Source) WithLogger(logger *slog.Logger) *S3Source {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Loader returns a deferred loader for key.
func (s *S3Source) Loader(key string) deferred.Loader {
	return func(ctx context.Context) (deferred.Component, error) {
		return s.Fetch(ctx, key)
	}
}

// Fetch downloads the bundle stored at prefix+key.
func (s *S3Source) Fetch(ctx context.Context, key string) (*Bundle, error) {
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("shared bundle fetch", "bucket", s.bucket, "key", key)
	}
	return v.(*Bundle), nil
}

func (s *S3Source) get(ctx context.Context, key string) (*Bundle, error) {
	fullKey := s.prefix + key
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, fullKey, ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", fullKey, err)
	}
	defer out.Body.Close()

	if s.maxSize > 0 && out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, fullKey, ErrTooLarge)
	}

	var buf bytes.Buffer
	r := io.Reader(out.Body)
	if s.maxSize > 0 {
		r = io.LimitReader(out.Body, s.maxSize+1)
	}
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", fullKey, err)
	}
	if s.maxSize > 0 && n > s.maxSize {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, fullKey, ErrTooLarge)
	}

	return &Bundle{
		Key:         key,
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
		Body:        buf.Bytes(),
	}, nil
}

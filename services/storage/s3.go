package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tech-arch1tect/medreg/config"
)

// S3API is the part of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg *config.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return NewS3StoreWithClient(client, cfg.S3Bucket, objectBaseURL(cfg)), nil
}

func NewS3StoreWithClient(client S3API, bucket, baseURL string) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// objectBaseURL is the prefix public object URLs are built from.
func objectBaseURL(cfg *config.StorageConfig) string {
	switch {
	case cfg.S3PublicURL != "":
		return cfg.S3PublicURL
	case cfg.S3Endpoint != "":
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		seeker = bytes.NewReader(data)
		size = int64(len(data))
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          seeker,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}

func (s *S3Store) Delete(ctx context.Context, rawURL string) error {
	escaped, ok := strings.CutPrefix(rawURL, s.baseURL+"/")
	if !ok {
		return ErrForeignURL
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrForeignURL, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

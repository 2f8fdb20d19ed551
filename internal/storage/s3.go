package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the bucket client. Endpoint is set for
// S3-compatible services such as MinIO and switches to path-style URLs.
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
}

// S3Store keeps files in an S3 bucket
type S3Store struct {
	client *s3.Client
	bucket string
	base   string
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := fmt.Sprintf("https://%s.s3.amazonaws.com/", opts.Bucket)
	if opts.Endpoint != "" {
		base = strings.TrimSuffix(opts.Endpoint, "/") + "/" + opts.Bucket + "/"
	}

	return &S3Store{client: client, bucket: opts.Bucket, base: base}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	log.WithField("key", key).WithField("bucket", s.bucket).Debug("Uploaded object")
	return nil
}

// Delete removes an object. S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.base + strings.TrimPrefix(key, "/")
}

package repository

import (
	"bytes"
	"context"
	"fmt"

	"challengr-backend/internal/apperr"
	appconfig "challengr-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobStore wraps an S3 bucket for binary object upload, listing and
// deletion
type BlobStore struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewBlobStore creates a blob store over the configured S3 bucket
func NewBlobStore(ctx context.Context, cfg appconfig.AWSConfig) (*BlobStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &BlobStore{
		client:   client,
		bucket:   cfg.S3Bucket,
		region:   cfg.Region,
		endpoint: cfg.Endpoint,
	}, nil
}

// Upload stores data under key with the given content type and object
// metadata
func (b *BlobStore) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return apperr.Blob(fmt.Sprintf("upload %s", key), err)
	}
	return nil
}

// ResolveURL returns the durable retrieval URL for an object key
func (b *BlobStore) ResolveURL(key string) string {
	if b.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", b.endpoint, b.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key)
}

// ListPrefix lists object keys directly under prefix, plus the immediate
// sub-prefixes one level down
func (b *BlobStore) ListPrefix(ctx context.Context, prefix string) (items []string, subPrefixes []string, err error) {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, apperr.Blob(fmt.Sprintf("list %s", prefix), err)
		}
		for _, obj := range page.Contents {
			items = append(items, aws.ToString(obj.Key))
		}
		for _, cp := range page.CommonPrefixes {
			subPrefixes = append(subPrefixes, aws.ToString(cp.Prefix))
		}
	}
	return items, subPrefixes, nil
}

// Delete removes an object by key
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Blob(fmt.Sprintf("delete %s", key), err)
	}
	return nil
}

package pathstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by S3Backend
type S3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds the connection settings of an S3 compatible bucket
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client. A custom endpoint (MinIO, R2) switches to path style addressing.
// Without explicit keys the default AWS credential chain is used.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Backend stores objects in a bucket below an optional key prefix.
// Objects become visible only once the upload completes.
type S3Backend struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Backend creates a backend on an existing client
func NewS3Backend(client S3API, bucket, prefix string, log zerolog.Logger) (*S3Backend, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil s3 client", domain.ErrStorage)
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket name is required", domain.ErrStorage)
	}
	return &S3Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
		log:      log.With().Str("component", "s3_path_store").Str("bucket", bucket).Logger(),
	}, nil
}

// Describe returns the s3:// URL of the prefix
func (b *S3Backend) Describe() string {
	return "s3://" + path.Join(b.bucket, b.prefix)
}

func (b *S3Backend) objectKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return path.Join(b.prefix, key)
}

// Put uploads data under key
func (b *S3Backend) Put(ctx context.Context, key string, data []byte) error {
	objectKey := b.objectKey(key)

	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload %s: %v", domain.ErrStorage, objectKey, err)
	}

	b.log.Debug().
		Str("key", objectKey).
		Int("size_bytes", len(data)).
		Msg("Uploaded object")

	return nil
}

// Get downloads the object stored under key
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey := b.objectKey(key)

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, objectKey)
		}
		return nil, fmt.Errorf("%w: failed to download %s: %v", domain.ErrStorage, objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", domain.ErrStorage, objectKey, err)
	}
	return data, nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/spec-kit/pet-adoption/internal/config"
)

// ObjectAPI is the subset of the S3 client used by the image store.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore uploads images to an S3 compatible bucket.
type S3ImageStore struct {
	client  ObjectAPI
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Client builds a client from storage config. Static credentials are
// used when provided; otherwise the default AWS chain applies.
func NewS3Client(ctx context.Context, cfg appconfig.StorageConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3ImageStore builds the store. Public URLs use S3PublicBaseURL, or
// endpoint/bucket when unset.
func NewS3ImageStore(client ObjectAPI, cfg appconfig.StorageConfig) *S3ImageStore {
	baseURL := strings.TrimRight(cfg.S3PublicBaseURL, "/")
	if baseURL == "" {
		endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.S3Region)
		}
		baseURL = endpoint + "/" + cfg.S3Bucket
	}
	return &S3ImageStore{client: client, bucket: cfg.S3Bucket, baseURL: baseURL, now: time.Now}
}

// Save uploads body under pets/YYYY/MM/DD/<uuid><ext>.
func (s *S3ImageStore) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("pets/%s/%s", s.now().UTC().Format("2006/01/02"), objectName(filename, contentType))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind a URL returned by Save.
func (s *S3ImageStore) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.baseURL+"/")
	if !ok || key == "" {
		return fmt.Errorf("image reference %q is outside bucket %s", ref, s.bucket)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

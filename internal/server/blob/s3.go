// Package blob stores attachment payloads in an S3-compatible object store.
// Keys follow attachments/{userID}/{taskID}/{attachmentID}, so a task's blobs
// can be addressed knowing only the ids on its attachment list.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/common"
	sc "github.com/dmitrijs2005/taskvault/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Test seams for the AWS SDK entry points.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ObjectKey builds the storage key for one attachment blob.
func ObjectKey(userID, taskID, attachmentID string) string {
	return fmt.Sprintf("attachments/%s/%s/%s", userID, taskID, attachmentID)
}

// S3Store talks to the configured S3-compatible backend (MinIO in dev).
type S3Store struct {
	region       string
	user         string
	password     string
	bucket       string
	baseEndpoint string
}

func NewS3Store(cfg *sc.Config) *S3Store {
	return &S3Store{
		region:       cfg.S3Region,
		user:         cfg.S3RootUser,
		password:     cfg.S3RootPassword,
		bucket:       cfg.S3Bucket,
		baseEndpoint: cfg.S3BaseEndpoint,
	}
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.user,     // MINIO_ROOT_USER
			s.password, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.baseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload writes the blob under key.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	in := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = &contentType
	}

	if _, err := putObject(client, ctx, in); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	return nil
}

// Delete removes the blob under key. Deleting a missing key is not an error
// (S3 semantics).
func (s *S3Store) Delete(ctx context.Context, key string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	if _, err := deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	return nil
}

// PresignGet returns a temporary download URL for the blob under key.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	presignClient := newS3PresignClient(client)

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorTransport, err)
	}

	return req.URL, nil
}

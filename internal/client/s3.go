package client

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// S3Client wraps an S3-compatible object store (Supabase storage, Cloudflare
// R2) as a speech-audio blob store.
type S3Client struct {
	s3Client *s3.Client
	bucket   string
}

// NewS3Client creates a client against an S3-compatible endpoint.
func NewS3Client(ctx context.Context, accessKeyID, secretKey, endpoint, bucketName string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3Client{
		s3Client: s3Client,
		bucket:   bucketName,
	}, nil
}

// Download fetches an object's full contents. A missing key is reported as
// BlobNotFound.
func (c *S3Client) Download(ctx context.Context, objectKey string) ([]byte, error) {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if goerrors.As(err, &noKey) {
			return nil, errors.New(errors.ErrBlobNotFound, "audio object not found: "+objectKey)
		}
		return nil, errors.Wrap(errors.ErrBlobNotFound, "failed to download audio object", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

package client

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/podiumlabs/orator_service/internal/errors"
)

// StorageClient wraps the Google Cloud Storage client as a speech-audio blob
// store.
type StorageClient struct {
	client     *storage.Client
	bucketName string
}

// NewStorageClient creates a new storage client. A credentials file is optional;
// without one the client falls back to application default credentials.
func NewStorageClient(ctx context.Context, bucketName, credentialsFile string) (*StorageClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &StorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Close closes the client.
func (c *StorageClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Download fetches an object's full contents. A missing object is reported as
// BlobNotFound so the pipeline can distinguish it from transport failures.
func (c *StorageClient) Download(ctx context.Context, objectKey string) ([]byte, error) {
	obj := c.client.Bucket(c.bucketName).Object(objectKey)
	r, err := obj.NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, errors.New(errors.ErrBlobNotFound, "audio object not found: "+objectKey)
		}
		return nil, errors.Wrap(errors.ErrBlobNotFound, "failed to open audio object", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// Exists checks if an object exists in the bucket.
func (c *StorageClient) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := c.client.Bucket(c.bucketName).Object(objectKey).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azb "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// uploader is the subset of *azblob.Client used by Store.
type uploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	URL() string
}

// Store uploads product images into an Azure Blob Storage container.
type Store struct {
	client    uploader
	container string
	baseURL   string
}

// NewStore creates Store writing to container.
func NewStore(client uploader, container string) *Store {
	return &Store{
		client:    client,
		container: container,
		baseURL:   strings.TrimSuffix(client.URL(), "/") + "/" + url.PathEscape(container),
	}
}

// NewStoreFromConnectionString builds an azblob client from a storage account connection string.
func NewStoreFromConnectionString(connectionString, container string) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return NewStore(client, container), nil
}

// Upload writes data as blob name and returns its URL.
func (s *Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &azb.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", name, err)
	}
	return s.baseURL + "/" + url.PathEscape(name), nil
}

// Disabled rejects uploads when no storage account is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, []byte) (string, error) {
	return "", fmt.Errorf("%w: image storage is not configured", domainErrors.ErrUnavailable)
}

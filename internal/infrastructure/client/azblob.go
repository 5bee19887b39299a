package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/St1cky1/task-tracker/internal/config"
)

// BlobImageStore keeps project images in one Azure Blob Storage container.
type BlobImageStore struct {
	client    *azblob.Client
	container string
}

func NewBlobImageStore(cfg config.Azure) (*BlobImageStore, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.Account)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &BlobImageStore{client: client, container: cfg.Container}, nil
}

// Put uploads the image and returns the blob URL.
func (s *BlobImageStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return blobURL(s.client.URL(), s.container, name), nil
}

// Delete accepts either a blob URL returned by Put or a bare blob name.
func (s *BlobImageStore) Delete(ctx context.Context, reference string) error {
	name, err := blobName(reference)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteBlob(ctx, s.container, name, nil); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func blobURL(serviceURL, container, name string) string {
	return strings.TrimSuffix(serviceURL, "/") + "/" + container + "/" + name
}

func blobName(reference string) (string, error) {
	if !strings.Contains(reference, "://") {
		if reference == "" {
			return "", fmt.Errorf("blob reference cannot be empty")
		}
		return reference, nil
	}
	parts, err := blob.ParseURL(reference)
	if err != nil {
		return "", fmt.Errorf("parse blob url: %w", err)
	}
	if parts.BlobName == "" {
		return "", fmt.Errorf("blob url %q has no blob name", reference)
	}
	return parts.BlobName, nil
}

package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kurin/blazer/b2"
)

// BlobStore is the object-storage collaborator the ledger depends on.
// The core owns key naming and treats the store as addressable by key
// only; moving a file between folders never touches it.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (*PutResult, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

type PutResult struct {
	Key  string
	Size int64
	SHA1 string
}

// StorageService is the Backblaze B2 implementation of BlobStore.
type StorageService struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

func NewStorageService(ctx context.Context, keyID, applicationKey, bucketName string) (*StorageService, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &StorageService{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

// BuildStorageKey produces a workspace-scoped, flat object key. The
// random prefix keeps keys stable across metadata renames.
func BuildStorageKey(workspaceID, filename string) string {
	safe := strings.ReplaceAll(filename, "/", "_")
	return fmt.Sprintf("workspaces/%s/%s_%s", workspaceID, uuid.NewString(), safe)
}

func (s *StorageService) Put(ctx context.Context, key string, r io.Reader) (*PutResult, error) {
	obj := s.bucket.Object(key)
	writer := obj.NewWriter(ctx)

	hasher := sha1.New()
	size, err := io.Copy(io.MultiWriter(writer, hasher), r)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to upload object to B2: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close B2 writer: %w", err)
	}

	return &PutResult{
		Key:  key,
		Size: size,
		SHA1: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *StorageService) Delete(ctx context.Context, key string) error {
	obj := s.bucket.Object(key)
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object from B2: %w", err)
	}
	return nil
}

// SignedURL generates a time-limited download URL for the private bucket.
func (s *StorageService) SignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	obj := s.bucket.Object(key)
	urlObj, err := obj.AuthURL(ctx, duration, "GET")
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return urlObj.String(), nil
}

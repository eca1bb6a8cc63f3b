// Package storage provides the durable file storage abstraction backing the
// message ledger. It supports local filesystem and S3 backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileProvider defines the interface for file storage operations.
type FileProvider interface {
	// Read reads the entire content of a file
	Read(ctx context.Context, path string) ([]byte, error)

	// Write writes data to a file, creating it if it doesn't exist
	Write(ctx context.Context, path string, data []byte) error

	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error
}

// LocalFileProvider implements FileProvider for the local filesystem.
type LocalFileProvider struct {
	baseDir string
}

// NewLocalFileProvider creates a new local file provider rooted at baseDir.
func NewLocalFileProvider(baseDir string) *LocalFileProvider {
	return &LocalFileProvider{baseDir: baseDir}
}

// Read reads a file from the local filesystem.
func (p *LocalFileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.baseDir, path)) //nolint:gosec // G304: path is constructed from trusted baseDir
}

// Write writes data to a local file, creating parent directories as needed.
func (p *LocalFileProvider) Write(ctx context.Context, path string, data []byte) error {
	fullPath := filepath.Join(p.baseDir, path)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return os.WriteFile(fullPath, data, 0o600)
}

// Exists checks if a file exists on the local filesystem.
func (p *LocalFileProvider) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(p.baseDir, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Delete removes a file from the local filesystem. Deleting a missing file
// is not an error.
func (p *LocalFileProvider) Delete(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(p.baseDir, path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// S3FileProvider implements FileProvider for AWS S3.
type S3FileProvider struct {
	bucket   string
	prefix   string
	s3Client S3Client
}

// NewS3FileProvider creates a new S3 file provider. All keys are placed
// under the given prefix within the bucket.
func NewS3FileProvider(bucket, prefix string, s3Client S3Client) *S3FileProvider {
	return &S3FileProvider{
		bucket:   bucket,
		prefix:   prefix,
		s3Client: s3Client,
	}
}

// Read reads an object from S3.
func (p *S3FileProvider) Read(ctx context.Context, path string) ([]byte, error) {
	return p.s3Client.GetObject(ctx, p.bucket, p.key(path))
}

// Write writes an object to S3.
func (p *S3FileProvider) Write(ctx context.Context, path string, data []byte) error {
	return p.s3Client.PutObject(ctx, p.bucket, p.key(path), data)
}

// Exists checks whether an object exists in S3. Returns (false, nil) only
// for "not found"; real errors (network, permissions) are propagated.
func (p *S3FileProvider) Exists(ctx context.Context, path string) (bool, error) {
	err := p.s3Client.HeadObject(ctx, p.bucket, p.key(path))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an object from S3.
func (p *S3FileProvider) Delete(ctx context.Context, path string) error {
	return p.s3Client.DeleteObject(ctx, p.bucket, p.key(path))
}

// key constructs the full S3 key by combining prefix and path.
func (p *S3FileProvider) key(path string) string {
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

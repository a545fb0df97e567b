package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/chalense/muni-laip/internal/pkg"
)

// StorageProvider abstracts the blob store documents are served from.
type StorageProvider interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get returns the payload stream; a missing key yields
	// pkg.ErrStorageIntegrity so the caller can tell a gone blob apart from
	// a provider outage.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// StorageConfig represents storage configuration
type StorageConfig struct {
	Provider  string `json:"provider"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Endpoint  string `json:"endpoint,omitempty"`
	BasePath  string `json:"base_path,omitempty"`
}

// NewStorageProvider creates the configured provider.
func NewStorageProvider(config *StorageConfig) (StorageProvider, error) {
	switch strings.ToLower(config.Provider) {
	case "s3", "aws":
		return NewS3Provider(config)
	case "local", "":
		return NewLocalProvider(config)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", config.Provider)
	}
}

// S3Provider implements S3-compatible storage
type S3Provider struct {
	s3Client *s3.S3
	uploader *s3manager.Uploader
	bucket   string
}

// NewS3Provider creates a new S3 provider
func NewS3Provider(config *StorageConfig) (*S3Provider, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(config.Region),
		Endpoint: aws.String(config.Endpoint),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Provider{
		s3Client: s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   config.Bucket,
	}, nil
}

// Put uploads a payload to S3
func (p *S3Provider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return pkg.ErrStorageProvider.WithCause(err)
	}
	return nil
}

// Get downloads a payload from S3
func (p *S3Provider) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := p.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return nil, pkg.ErrStorageIntegrity.WithCause(err)
			}
		}
		return nil, pkg.ErrStorageProvider.WithCause(err)
	}
	return result.Body, nil
}

// Delete removes a payload from S3
func (p *S3Provider) Delete(ctx context.Context, key string) error {
	_, err := p.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return pkg.ErrStorageProvider.WithCause(err)
	}
	return nil
}

// GetPresignedURL generates a time-limited download URL
func (p *S3Provider) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, _ := p.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiry)
	if err != nil {
		return "", pkg.ErrStorageProvider.WithCause(err)
	}
	return url, nil
}

// LocalProvider implements filesystem storage for development and small
// single-node deployments.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a new local provider
func NewLocalProvider(config *StorageConfig) (*LocalProvider, error) {
	basePath := config.BasePath
	if basePath == "" {
		basePath = "./storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalProvider{basePath: basePath}, nil
}

func (p *LocalProvider) path(key string) string {
	return filepath.Join(p.basePath, filepath.FromSlash(key))
}

// Put writes a payload to the local filesystem
func (p *LocalProvider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	path := p.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pkg.ErrStorageProvider.WithCause(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pkg.ErrStorageProvider.WithCause(err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return pkg.ErrStorageProvider.WithCause(err)
	}
	return nil
}

// Get opens a payload from the local filesystem
func (p *LocalProvider) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkg.ErrStorageIntegrity.WithCause(err)
		}
		return nil, pkg.ErrStorageProvider.WithCause(err)
	}
	return f, nil
}

// Delete removes a payload from the local filesystem
func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	if err := os.Remove(p.path(key)); err != nil && !os.IsNotExist(err) {
		return pkg.ErrStorageProvider.WithCause(err)
	}
	return nil
}

// GetPresignedURL is not meaningful for local storage; the server streams the
// file itself.
func (p *LocalProvider) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", pkg.ErrStorageProvider.WithCause(fmt.Errorf("presigned URLs not supported by local storage"))
}

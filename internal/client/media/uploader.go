// Package media stores announcement images in S3-compatible object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("image storage is not configured")
	ErrForeignURL    = errors.New("url is not served by this bucket")
)

// Uploader stores a local file and returns its public URL. Remove deletes
// an object previously returned by Upload.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Remove(ctx context.Context, url string) error
}

type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

type S3Uploader struct {
	client     objectStore
	bucket     string
	publicBase string
	now        func() time.Time
	newID      func() string
}

// NewS3Uploader builds a path-style client with static credentials, the
// way MinIO and similar stores expect.
func NewS3Uploader(ctx context.Context, c Config) (*S3Uploader, error) {
	if c.Bucket == "" {
		return nil, ErrNotConfigured
	}
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	base := c.PublicBaseURL
	if base == "" {
		base = c.Endpoint
	}
	return newUploader(client, c.Bucket, base), nil
}

func newUploader(client objectStore, bucket, publicBase string) *S3Uploader {
	return &S3Uploader{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// ObjectKey returns users/<yyyy>/<m>/<d>/<uuid><ext>.
func (u *S3Uploader) ObjectKey(localPath string) string {
	d := u.now()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("users/%d/%d/%d/%s%s", d.Year(), d.Month(), d.Day(), u.newID(), ext)
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	key := u.ObjectKey(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := u.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return u.prefix() + key, nil
}

func (u *S3Uploader) prefix() string { return u.publicBase + "/" + u.bucket + "/" }

func (u *S3Uploader) Remove(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, u.prefix())
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, url)
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

package minio

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client        *miniogo.Client
	frameBucket   string
	reportBucket  string
	publicBaseURL string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	FrameBucket   string
	ReportBucket  string
	PublicBaseURL string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	creds := credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{Creds: creds, Secure: cfg.UseSSL})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:        client,
		frameBucket:   cfg.FrameBucket,
		reportBucket:  cfg.ReportBucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureBuckets creates the frame and report buckets if they do not exist.
func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.frameBucket, s.reportBucket} {
		ok, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if ok {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// StoreFrame uploads a single extracted frame image and returns the URL
// the report embeds for it.
func (s *Storage) StoreFrame(ctx context.Context, objectKey string, filePath string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.frameBucket, objectKey, filePath, miniogo.PutObjectOptions{
		ContentType: frameContentType(filePath),
	})
	if err != nil {
		return "", fmt.Errorf("upload frame: %w", err)
	}
	return s.objectURL(s.frameBucket, objectKey), nil
}

func (s *Storage) StoreReport(ctx context.Context, objectKey string, html []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.reportBucket, objectKey, bytes.NewReader(html), int64(len(html)), miniogo.PutObjectOptions{
		ContentType: "text/html; charset=utf-8",
	})
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return s.objectURL(s.reportBucket, objectKey), nil
}

// ReportURL rebuilds the public URL for a stored report key without
// touching the object store.
func (s *Storage) ReportURL(objectKey string) string {
	return s.objectURL(s.reportBucket, objectKey)
}

func (s *Storage) objectURL(bucket, objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, objectKey)
}

func frameContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

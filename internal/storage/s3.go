package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"pallet-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const labelPrefix = "labels/"

// LabelStore keeps label PDFs in an S3-compatible bucket (R2, MinIO, S3)
type LabelStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewLabelStore returns nil, nil when storage is not configured
func NewLabelStore(ctx context.Context, cfg *config.Config) (*LabelStore, error) {
	if !cfg.StorageEnabled() {
		log.Println("[Storage] Not configured, label PDFs will not be uploaded")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Storage.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		o.UsePathStyle = true
	})

	return &LabelStore{
		client:        client,
		bucket:        cfg.Storage.Bucket,
		publicBaseURL: strings.TrimRight(cfg.Storage.PublicBaseURL, "/"),
	}, nil
}

// Key maps a label file name to its object key
func Key(fileName string) string {
	return labelPrefix + fileName
}

// Put uploads a PDF, overwriting any previous upload, and returns its URL
func (s *LabelStore) Put(ctx context.Context, fileName string, data []byte) (string, error) {
	key := Key(fileName)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// Get downloads a previously uploaded PDF
func (s *LabelStore) Get(ctx context.Context, fileName string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(Key(fileName)),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// URL returns the public URL of key, or an s3:// reference when no public
// base is configured
func (s *LabelStore) URL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return "s3://" + s.bucket + "/" + key
}

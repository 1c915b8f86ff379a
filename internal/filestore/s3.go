// Package filestore реализует хранение загруженных файлов базы знаний
// в S3-совместимой корзине.
package filestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ainexo/declair/internal/config"
)

// Store клиент S3-совместимого хранилища.
type Store struct {
	client *s3.Client
	bucket string
}

// New создаёт клиент хранилища по статическим реквизитам из конфига.
func New(ctx context.Context, cfg config.FileStorage) (*Store, error) {
	const op = "filestore.New"

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Upload загружает содержимое файла по ключу.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	const op = "filestore.Upload"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove удаляет содержимое файла по ключу.
func (s *Store) Remove(ctx context.Context, key string) error {
	const op = "filestore.Remove"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

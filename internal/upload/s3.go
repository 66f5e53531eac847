package upload

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config параметры S3-совместимого хранилища
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	Secure    bool
}

// Uploader выгружает готовые файлы в бакет
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewUploader создает клиента minio
func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// ObjectKey ключ объекта для локального файла
func (u *Uploader) ObjectKey(path string) string {
	return u.prefix + filepath.Base(path)
}

// UploadFile загружает файл как text/csv и возвращает ключ объекта
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	key := u.ObjectKey(path)

	info, err := u.client.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object %s: %w", key, err)
	}

	return info.Key, nil
}

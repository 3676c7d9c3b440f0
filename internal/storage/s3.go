package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/cors"
	"github.com/skyvault/backend/internal/config"
	"github.com/skyvault/backend/pkg/logger"
)

// S3Client targets AWS-hosted buckets. Unlike the MinIO client it falls back
// to IAM credentials when no static key pair is configured.
type S3Client struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
}

func NewS3Client(cfg config.S3Config) (*S3Client, error) {
	var creds *credentials.Credentials

	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Client{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: cfg.PublicEndpoint,
	}, nil
}

func (s *S3Client) PresignedPutURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	urlValue, err := s.client.PresignedPutObject(ctx, s.bucket, objectName, expiry)
	if err != nil {
		logger.Error("s3_presign_put_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return "", err
	}
	return urlValue.String(), nil
}

func (s *S3Client) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration, contentType, contentDisposition string) (string, error) {
	query := make(url.Values)
	if contentType != "" {
		query.Set("response-content-type", contentType)
	}
	if contentDisposition != "" {
		query.Set("response-content-disposition", contentDisposition)
	}

	urlValue, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, query)
	if err != nil {
		logger.Error("s3_presign_get_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return "", err
	}
	return urlValue.String(), nil
}

func (s *S3Client) Open(ctx context.Context, objectName string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("s3_open_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return nil, ObjectInfo{}, err
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		logger.Error("s3_open_stat_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
		return nil, ObjectInfo{}, err
	}
	return obj, ObjectInfo{Size: stat.Size, ContentType: stat.ContentType}, nil
}

func (s *S3Client) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("s3_delete_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
	} else {
		logger.Info("s3_delete_success", map[string]interface{}{
			"object_name": objectName,
			"bucket":      s.bucket,
		})
	}
	return err
}

func (s *S3Client) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *S3Client) SetupCORS(ctx context.Context) error {
	corsConfig := cors.NewConfig([]cors.Rule{
		{
			AllowedHeader: []string{"*"},
			AllowedMethod: []string{"PUT", "POST", "GET", "HEAD"},
			AllowedOrigin: []string{"*"},
			ExposeHeader:  []string{"ETag"},
			MaxAgeSeconds: 3000,
		},
	})
	if err := s.client.SetBucketCors(ctx, s.bucket, corsConfig); err != nil {
		logger.Error("s3_cors_setup_failed", err, map[string]interface{}{
			"bucket": s.bucket,
		})
		return err
	}
	logger.Info("s3_cors_setup_success", map[string]interface{}{
		"bucket": s.bucket,
	})
	return nil
}

package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"assembly-qc/config"
)

// Client MinIO 客户端封装，用于归档班次报表
type Client struct {
	mc     *minio.Client
	bucket string
	logger *zap.Logger
}

// NewClient 创建 MinIO 客户端并确保存储桶存在
func NewClient(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("已创建报表存储桶", zap.String("bucket", cfg.Bucket))
	}

	return &Client{mc: mc, bucket: cfg.Bucket, logger: logger}, nil
}

// Put 上传对象，返回对象键
func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	info, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传对象失败: %w", err)
	}
	c.logger.Info("报表已归档",
		zap.String("bucket", c.bucket),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size),
	)
	return info.Key, nil
}

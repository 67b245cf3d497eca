package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// EvidenceService 照片取证存储服务
// 取证对象只写不删，报告答案通过 evidence_ref 引用对象路径。
type EvidenceService struct {
	minioClient *minio.Client
	bucketName  string
}

// NewEvidenceService 创建照片取证存储服务
func NewEvidenceService(minioClient *minio.Client, bucketName string) *EvidenceService {
	return &EvidenceService{
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// Upload 上传取证照片，返回对象路径（即 evidence_ref）
func (s *EvidenceService) Upload(ctx context.Context, reader io.Reader, fileName string, fileSize int64, contentType string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("storage not configured")
	}

	objectName := fmt.Sprintf("evidence/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	return objectName, nil
}

// Download 按对象路径取回取证照片
func (s *EvidenceService) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("storage not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return object, nil
}

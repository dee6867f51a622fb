package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// AttachmentService 验货报告附件，对象存于MinIO，元数据落库
type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	qcRepo         *repository.QCRepository
	client         *minio.Client
	bucket         string
}

func NewAttachmentService(repos *repository.Repositories, client *minio.Client, bucket string) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: repos.Attachment,
		qcRepo:         repos.QC,
		client:         client,
		bucket:         bucket,
	}
}

// Upload 上传附件到MinIO并记录元数据
func (s *AttachmentService) Upload(ctx context.Context, qcRecordID, fileName, contentType string, size int64, reader io.Reader, actorID string) (*entity.QCAttachment, error) {
	if s.client == nil {
		return nil, fmt.Errorf("object storage not configured")
	}

	record, err := s.qcRepo.FindByID(ctx, qcRecordID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("qc/%s/%d_%s", record.QCCode, time.Now().UnixNano(), filepath.Base(fileName))
	_, err = s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}

	attachment := &entity.QCAttachment{
		ID:          uuid.New().String()[:32],
		QCRecordID:  record.ID,
		FileName:    fileName,
		FilePath:    objectName,
		FileSize:    size,
		ContentType: contentType,
		UploadedBy:  actorID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// List 查询验货记录的附件列表
func (s *AttachmentService) List(ctx context.Context, qcRecordID string) ([]entity.QCAttachment, error) {
	return s.attachmentRepo.FindByQCRecordID(ctx, qcRecordID)
}

// PresignedURL 生成附件的临时下载链接
func (s *AttachmentService) PresignedURL(ctx context.Context, qcRecordID, attachmentID string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	attachments, err := s.attachmentRepo.FindByQCRecordID(ctx, qcRecordID)
	if err != nil {
		return "", err
	}
	for _, attachment := range attachments {
		if attachment.ID == attachmentID {
			u, err := s.client.PresignedGetObject(ctx, s.bucket, attachment.FilePath, 15*time.Minute, nil)
			if err != nil {
				return "", err
			}
			return u.String(), nil
		}
	}
	return "", repository.ErrNotFound
}

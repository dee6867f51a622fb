package repository

import (
	"context"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"gorm.io/gorm"
)

// AttachmentRepository 附件仓库
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create 创建附件记录
func (r *AttachmentRepository) Create(ctx context.Context, attachment *entity.QCAttachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// FindByQCRecordID 查询验货记录的附件
func (r *AttachmentRepository) FindByQCRecordID(ctx context.Context, qcRecordID string) ([]entity.QCAttachment, error) {
	var items []entity.QCAttachment
	err := r.db.WithContext(ctx).
		Where("qc_record_id = ?", qcRecordID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

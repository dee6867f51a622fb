package entity

import "time"

// QCAttachment 验货报告附件（存储于MinIO）
type QCAttachment struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	QCRecordID string `json:"qc_record_id" gorm:"size:32;not null;index"`

	FileName    string `json:"file_name" gorm:"size:255;not null"`
	FilePath    string `json:"file_path" gorm:"size:500;not null"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type" gorm:"size:100"`

	UploadedBy string    `json:"uploaded_by" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (QCAttachment) TableName() string {
	return "qc_attachments"
}

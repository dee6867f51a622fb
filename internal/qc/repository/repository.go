package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict 乐观锁冲突：记录已被并发修改
	ErrVersionConflict = errors.New("record version conflict")
)

// Repositories QC仓库集合
type Repositories struct {
	User       *UserRepository
	Inspector  *InspectorRepository
	Order      *OrderRepository
	QC         *QCRepository
	Event      *EventRepository
	Attachment *AttachmentRepository
}

// NewRepositories 创建QC仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Inspector:  NewInspectorRepository(db),
		Order:      NewOrderRepository(db),
		QC:         NewQCRepository(db),
		Event:      NewEventRepository(db),
		Attachment: NewAttachmentRepository(db),
	}
}

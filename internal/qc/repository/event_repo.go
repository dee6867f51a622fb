package repository

import (
	"context"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"gorm.io/gorm"
)

// EventRepository 检验事件仓库（仅追加）
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 追加检验事件
func (r *EventRepository) Create(ctx context.Context, event *entity.InspectionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByQCRecordID 按序查询某验货记录的全部事件
func (r *EventRepository) FindByQCRecordID(ctx context.Context, qcRecordID string) ([]entity.InspectionEvent, error) {
	var items []entity.InspectionEvent
	err := r.db.WithContext(ctx).
		Where("qc_record_id = ?", qcRecordID).
		Order("seq ASC").
		Find(&items).Error
	return items, err
}

// NextSeq 下一个事件序号
func (r *EventRepository) NextSeq(ctx context.Context, qcRecordID string) (int, error) {
	var maxSeq int
	err := r.db.WithContext(ctx).
		Model(&entity.InspectionEvent{}).
		Select("COALESCE(MAX(seq), 0)").
		Where("qc_record_id = ?", qcRecordID).
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

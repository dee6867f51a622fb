package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"gorm.io/gorm"
)

// QCRepository 验货记录仓库
type QCRepository struct {
	db *gorm.DB
}

func NewQCRepository(db *gorm.DB) *QCRepository {
	return &QCRepository{db: db}
}

// FindAll 查询验货记录列表
func (r *QCRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.QCRecord, int64, error) {
	var items []entity.QCRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.QCRecord{})

	if inspectorID := filters["inspector_id"]; inspectorID != "" {
		query = query.Where("inspector_id = ?", inspectorID)
	}
	if orderID := filters["order_id"]; orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}
	if itemCode := filters["item_code"]; itemCode != "" {
		query = query.Where("item_code = ?", itemCode)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找验货记录
func (r *QCRepository) FindByID(ctx context.Context, id string) (*entity.QCRecord, error) {
	var record entity.QCRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByOrderID 根据订单ID查找验货记录
func (r *QCRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.QCRecord, error) {
	var record entity.QCRecord
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Create 创建验货记录
func (r *QCRepository) Create(ctx context.Context, record *entity.QCRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// UpdateWithVersion 带乐观锁更新验货记录，版本不匹配返回 ErrVersionConflict
func (r *QCRepository) UpdateWithVersion(ctx context.Context, record *entity.QCRecord) error {
	current := record.Version
	record.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(&entity.QCRecord{}).
		Where("id = ? AND version = ?", record.ID, current).
		Select("*").
		Omit("id", "created_at").
		Updates(record)
	if result.Error != nil {
		record.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		record.Version = current
		return ErrVersionConflict
	}
	return nil
}

// GenerateCode 生成验货编码 QC-{year}-{4位}
func (r *QCRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("QC-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.QCRecord{}).
		Select("COALESCE(MAX(qc_code), '')").
		Where("qc_code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "QC-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("QC-%s-%04d", year, seq), nil
}

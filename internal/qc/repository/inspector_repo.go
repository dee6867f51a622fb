package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"gorm.io/gorm"
)

// InspectorRepository 检验员仓库
type InspectorRepository struct {
	db *gorm.DB
}

func NewInspectorRepository(db *gorm.DB) *InspectorRepository {
	return &InspectorRepository{db: db}
}

// FindAll 查询检验员列表
func (r *InspectorRepository) FindAll(ctx context.Context, page, pageSize int) ([]entity.Inspector, int64, error) {
	var items []entity.Inspector
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Inspector{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找检验员
func (r *InspectorRepository) FindByID(ctx context.Context, id string) (*entity.Inspector, error) {
	var inspector entity.Inspector
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&inspector).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inspector, nil
}

// FindByUserID 根据用户ID查找检验员
func (r *InspectorRepository) FindByUserID(ctx context.Context, userID string) (*entity.Inspector, error) {
	var inspector entity.Inspector
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&inspector).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inspector, nil
}

// FindOthers 查找除指定检验员外的全部检验员（跨检验员标签排他检查用）
func (r *InspectorRepository) FindOthers(ctx context.Context, excludeID string) ([]entity.Inspector, error) {
	var items []entity.Inspector
	err := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Find(&items).Error
	return items, err
}

// Create 创建检验员
func (r *InspectorRepository) Create(ctx context.Context, inspector *entity.Inspector) error {
	return r.db.WithContext(ctx).Create(inspector).Error
}

// Update 更新检验员
func (r *InspectorRepository) Update(ctx context.Context, inspector *entity.Inspector) error {
	return r.db.WithContext(ctx).Save(inspector).Error
}

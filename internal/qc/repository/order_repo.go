package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"gorm.io/gorm"
)

// OrderRepository 订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll 查询订单列表
func (r *OrderRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.Order, int64, error) {
	var items []entity.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Order{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo := filters["order_no"]; orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	if vendor := filters["vendor"]; vendor != "" {
		query = query.Where("vendor = ?", vendor)
	}
	if brand := filters["brand"]; brand != "" {
		query = query.Where("brand = ?", brand)
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

// FindByID 根据ID查找订单
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Preload("Shipments").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByNoAndItem 根据 (order_no, item_code) 查找订单
func (r *OrderRepository) FindByNoAndItem(ctx context.Context, orderNo, itemCode string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.WithContext(ctx).
		Where("order_no = ? AND item_code = ?", orderNo, itemCode).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ExistingKeys 返回存储中已存在的 (order_no, item_code) 键集合，键格式 order_no|item_code
func (r *OrderRepository) ExistingKeys(ctx context.Context) (map[string]bool, error) {
	type row struct {
		OrderNo  string
		ItemCode string
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Order{}).
		Select("order_no", "item_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		keys[row.OrderNo+"|"+row.ItemCode] = true
	}
	return keys, nil
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateBatch 批量创建订单
func (r *OrderRepository) CreateBatch(ctx context.Context, orders []entity.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(orders, 100).Error
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// CreateShipment 创建出运记录
func (r *OrderRepository) CreateShipment(ctx context.Context, shipment *entity.OrderShipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// ListShipments 查询订单的出运记录
func (r *OrderRepository) ListShipments(ctx context.Context, orderID string) ([]entity.OrderShipment, error) {
	var items []entity.OrderShipment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

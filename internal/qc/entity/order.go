package entity

import "time"

// Order 采购订单行项，(order_no, item_code) 唯一
type Order struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	OrderNo     string `json:"order_no" gorm:"size:50;not null;uniqueIndex:idx_orders_no_item"`
	ItemCode    string `json:"item_code" gorm:"size:50;not null;uniqueIndex:idx_orders_no_item"`
	Description string `json:"description" gorm:"size:500"`
	Brand       string `json:"brand" gorm:"size:100"`
	Vendor      string `json:"vendor" gorm:"size:200"`

	Quantity   int `json:"quantity" gorm:"not null"`
	ShippedQty int `json:"shipped_qty" gorm:"default:0"`

	OrderDate    *time.Time `json:"order_date"`
	ExpectedDate *time.Time `json:"expected_date"`

	Status string `json:"status" gorm:"size:20;default:pending"` // pending/under_inspection/inspection_done/partial_shipped/shipped

	// QC记录回引
	QCRecordID *string `json:"qc_record_id" gorm:"size:32"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Shipments []OrderShipment `json:"shipments,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "qc_orders"
}

// 订单状态
const (
	OrderStatusPending         = "pending"
	OrderStatusUnderInspection = "under_inspection"
	OrderStatusInspectionDone  = "inspection_done"
	OrderStatusPartialShipped  = "partial_shipped"
	OrderStatusShipped         = "shipped"
)

// OrderShipment 出运记录，数量累计不得超过订单数量
type OrderShipment struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	OrderID      string     `json:"order_id" gorm:"size:32;not null;index"`
	ContainerNo  string     `json:"container_no" gorm:"size:50"`
	StuffingDate *time.Time `json:"stuffing_date"`

	Quantity       int `json:"quantity" gorm:"not null"`
	RemainingAfter int `json:"remaining_after" gorm:"not null"`

	Remarks   string    `json:"remarks" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderShipment) TableName() string {
	return "qc_order_shipments"
}

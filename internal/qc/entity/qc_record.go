package entity

import (
	"time"

	"gorm.io/datatypes"
)

// QCRecord 验货记录，每个订单行项一条
type QCRecord struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	QCCode   string `json:"qc_code" gorm:"size:32;uniqueIndex;not null"`
	OrderID  string `json:"order_id" gorm:"size:32;uniqueIndex;not null"`
	ItemCode string `json:"item_code" gorm:"size:50;not null"`

	InspectorID string    `json:"inspector_id" gorm:"size:32;not null;index"`
	RequestDate time.Time `json:"request_date"`

	// 数量账：0 ≤ vendor_provision ≤ client_demand
	ClientDemand    int `json:"client_demand" gorm:"not null"`
	VendorProvision int `json:"vendor_provision" gorm:"default:0"`
	QCChecked       int `json:"qc_checked" gorm:"default:0"`
	QCPassed        int `json:"qc_passed" gorm:"default:0"`
	QCRejected      int `json:"qc_rejected" gorm:"default:0"`
	Pending         int `json:"pending" gorm:"default:0"` // client_demand - qc_passed

	// 体积，精确十进制字符串，只可设置一次
	CBMTop    string `json:"cbm_top" gorm:"size:64"`
	CBMBottom string `json:"cbm_bottom" gorm:"size:64"`
	CBMTotal  string `json:"cbm_total" gorm:"size:64"`

	// 一次性字段
	PackedSize bool   `json:"packed_size" gorm:"default:false"`
	Finishing  bool   `json:"finishing" gorm:"default:false"`
	Branding   bool   `json:"branding" gorm:"default:false"`
	Barcode    *int64 `json:"barcode"`

	// 已认领的库存标签，有序
	Labels datatypes.JSONSlice[int64] `json:"labels" gorm:"type:jsonb"`

	Remarks   string `json:"remarks" gorm:"type:text"`
	CreatedBy string `json:"created_by" gorm:"size:32"`

	// 乐观锁版本号
	Version int `json:"version" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QCRecord) TableName() string {
	return "qc_records"
}

// HasAnyUpdate 是否已有过检验提交
func (q *QCRecord) HasAnyUpdate() bool {
	return q.QCChecked > 0 || q.QCPassed > 0 || q.QCRejected > 0 || len(q.Labels) > 0
}

// CBMSet 体积是否已设置
func (q *QCRecord) CBMSet() bool {
	return q.CBMTotal != ""
}

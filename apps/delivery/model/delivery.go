package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 物流状态
type Status string

const (
	StatusCreated        Status = "created"
	StatusPacked         Status = "packed"
	StatusShipped        Status = "shipped"
	StatusInTransit      Status = "in_transit"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusFailed         Status = "failed"
)

// Statuses lists the happy path in order, followed by failed.
var Statuses = []Status{
	StatusCreated, StatusPacked, StatusShipped, StatusInTransit,
	StatusOutForDelivery, StatusDelivered, StatusFailed,
}

var statusLabels = map[Status]string{
	StatusCreated:        "Креирана",
	StatusPacked:         "Спакувана",
	StatusShipped:        "Испратена",
	StatusInTransit:      "Во транспорт",
	StatusOutForDelivery: "На испорака",
	StatusDelivered:      "Доставена",
	StatusFailed:         "Неуспешна",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the customer-facing name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Option 配送方式
type Option struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"type:varchar(100);not null" json:"name"`
	NameLocal        string          `gorm:"type:varchar(100)" json:"name_local"`
	Description      string          `gorm:"type:text" json:"description"`
	DescriptionLocal string          `gorm:"type:text" json:"description_local"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	EstimatedDays    int             `gorm:"not null" json:"estimated_days"`
	IsActive         bool            `gorm:"not null;index" json:"is_active"`
}

// Delivery 订单物流，与订单一对一
type Delivery struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	OrderID          uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	DeliveryOptionID *uint           `json:"delivery_option_id,omitempty"`
	DeliveryOption   *Option         `gorm:"constraint:OnDelete:SET NULL" json:"delivery_option,omitempty"`
	Status           Status          `gorm:"type:varchar(20);not null;index" json:"status"`
	TrackingNumber   string          `gorm:"type:varchar(100)" json:"tracking_number"`
	CourierName      string          `gorm:"type:varchar(100)" json:"courier_name"`
	CreatedAt        time.Time       `json:"created_at"`
	PackedAt         *time.Time      `json:"packed_at,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	History          []StatusHistory `gorm:"constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
}

// StatusHistory 物流状态流水，只追加
type StatusHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeliveryID uint      `gorm:"not null;index" json:"delivery_id"`
	Status     Status    `gorm:"type:varchar(20);not null" json:"status"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Option) TableName() string {
	return "delivery_options"
}

func (Delivery) TableName() string {
	return "deliveries"
}

func (StatusHistory) TableName() string {
	return "delivery_status_histories"
}

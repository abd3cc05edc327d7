package model

import (
	"fmt"
	"time"

	deliverymodel "go-boutique/apps/delivery/model"
	productmodel "go-boutique/apps/product/model"

	"github.com/shopspring/decimal"
)

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:    "На чекање",
	StatusConfirmed:  "Потврдена",
	StatusProcessing: "Во обработка",
	StatusShipped:    "Испратена",
	StatusDelivered:  "Доставена",
	StatusCancelled:  "Откажана",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Terminal statuses accept no further change.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order 订单主表，创建后金额与明细不再变化
type Order struct {
	ID            uint                    `gorm:"primaryKey" json:"id"`
	UserID        *uint                   `gorm:"index" json:"user_id,omitempty"`
	FirstName     string                  `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName      string                  `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone         string                  `gorm:"type:varchar(20);not null" json:"phone"`
	Email         string                  `gorm:"type:varchar(254)" json:"email"`
	StreetAddress string                  `gorm:"type:varchar(255);not null" json:"street_address"`
	City          string                  `gorm:"type:varchar(100);not null" json:"city"`
	PaymentMethod string                  `gorm:"type:varchar(20);not null" json:"payment_method"`
	Status        Status                  `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal      decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DeliveryCost  decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"delivery_cost"`
	Discount      decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"discount"`
	Total         decimal.Decimal         `gorm:"type:decimal(10,2);not null" json:"total"`
	Notes         string                  `gorm:"type:text" json:"notes"`
	Items         []OrderItem             `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Delivery      *deliverymodel.Delivery `gorm:"constraint:OnDelete:CASCADE" json:"delivery,omitempty"`
	CreatedAt     time.Time               `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// Number 订单号，如 EMY000042
func (o Order) Number() string {
	return fmt.Sprintf("EMY%06d", o.ID)
}

// OrderItem 订单明细：下单时的商品名与折后单价快照
type OrderItem struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	OrderID      uint                  `gorm:"not null;index" json:"order_id"`
	ProductID    *uint                 `gorm:"index" json:"product_id,omitempty"`
	Product      *productmodel.Product `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	ProductName  string                `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductPrice decimal.Decimal       `gorm:"type:decimal(10,2);not null" json:"product_price"`
	Quantity     int                   `gorm:"not null" json:"quantity"`
	Subtotal     decimal.Decimal       `gorm:"type:decimal(10,2);not null" json:"subtotal"`
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

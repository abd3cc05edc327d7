package model

import (
	"time"

	productmodel "go-boutique/apps/product/model"
	"go-boutique/pkg/money"

	"github.com/shopspring/decimal"
)

// Cart 购物车：属于登录用户或匿名 session，二者恰有其一
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionKey *string    `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	Items      []CartItem `json:"items,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem 购物车明细，(cart, product) 唯一
type CartItem struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	CartID             uint                 `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID          uint                 `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product            productmodel.Product `gorm:"constraint:OnDelete:CASCADE" json:"product"`
	Quantity           int                  `gorm:"not null" json:"quantity"`
	DiscountPercentage decimal.Decimal      `gorm:"type:decimal(5,2);not null" json:"discount_percentage"`
	AddedAt            time.Time            `gorm:"autoCreateTime" json:"added_at"`
}

// UnitPrice is the product price after the line discount.
func (i CartItem) UnitPrice() decimal.Decimal {
	if !i.DiscountPercentage.IsPositive() {
		return i.Product.Price
	}
	return money.ApplyDiscount(i.Product.Price, i.DiscountPercentage)
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) OriginalSubtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) DiscountAmount() decimal.Decimal {
	return i.OriginalSubtotal().Sub(i.Subtotal())
}

func (Cart) TableName() string {
	return "carts"
}

func (CartItem) TableName() string {
	return "cart_items"
}

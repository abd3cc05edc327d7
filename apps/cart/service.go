// Package cart keeps one cart per owner and its discounted line items.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-boutique/apps/cart/model"
	productmodel "go-boutique/apps/product/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrItemNotFound = errs.NotFound("Cart item not found")

// Products resolves available products for the cart.
type Products interface {
	Get(ctx context.Context, id uint) (*productmodel.Product, error)
}

type Service struct {
	db       *gorm.DB
	products Products
}

func NewService(db *gorm.DB, products Products) *Service {
	return &Service{db: db, products: products}
}

func ownerScope(owner identity.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.Authenticated() {
			return db.Where("user_id = ?", owner.UserID)
		}
		return db.Where("session_key = ?", owner.SessionKey)
	}
}

// GetOrCreate returns the owner's cart, creating it on first use. Concurrent
// first calls converge on one row through the unique owner index.
func (s *Service) GetOrCreate(ctx context.Context, owner identity.Identity) (*model.Cart, error) {
	if !owner.Authenticated() && owner.SessionKey == "" {
		return nil, errs.InvalidInput("cart owner is required")
	}
	db := s.db.WithContext(ctx)

	var c model.Cart
	err := db.Scopes(ownerScope(owner)).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	c = model.Cart{}
	if owner.Authenticated() {
		c.UserID = owner.UserIDPtr()
	} else {
		key := owner.SessionKey
		c.SessionKey = &key
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}

	// 并发创建时另一方已写入，重新读取
	var existing model.Cart
	if err := db.Scopes(ownerScope(owner)).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("reloading cart: %w", err)
	}
	return &existing, nil
}

// Find returns the owner's cart without creating one, or nil.
func (s *Service) Find(ctx context.Context, owner identity.Identity) (*model.Cart, error) {
	if !owner.Authenticated() && owner.SessionKey == "" {
		return nil, nil
	}
	var c model.Cart
	err := s.db.WithContext(ctx).Scopes(ownerScope(owner)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	return &c, nil
}

type AddResult struct {
	Item           model.CartItem
	Created        bool
	DiscountRaised bool
}

// AddItem puts one unit of the product in the cart. An existing line gains
// one unit and keeps the larger of its current and the requested discount.
func (s *Service) AddItem(ctx context.Context, c *model.Cart, productID uint, discount money.PercentInput) (*AddResult, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	pct := money.ClampPercent(discount.Value).Round(2)

	result := &AddResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := model.CartItem{
			CartID:             c.ID,
			ProductID:          p.ID,
			Quantity:           1,
			DiscountPercentage: pct,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Product").Create(&item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			result.Created = true
			return tx.Preload("Product.Category").First(&result.Item, "cart_id = ? AND product_id = ?", c.ID, p.ID).Error
		}

		var current model.CartItem
		if err := tx.Where("cart_id = ? AND product_id = ?", c.ID, p.ID).First(&current).Error; err != nil {
			return err
		}
		result.DiscountRaised = pct.GreaterThan(current.DiscountPercentage)

		err := tx.Model(&model.CartItem{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{
				"quantity":            gorm.Expr("quantity + 1"),
				"discount_percentage": gorm.Expr("CASE WHEN discount_percentage < ? THEN ? ELSE discount_percentage END", pct, pct),
			}).Error
		if err != nil {
			return err
		}
		return tx.Preload("Product.Category").First(&result.Item, current.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("adding product %d to cart %d: %w", productID, c.ID, err)
	}
	return result, nil
}

// ParseQuantity reads a quantity field; anything that is not an integer
// counts as zero, which removes the line.
func ParseQuantity(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return q
}

// SetQuantity overwrites the line quantity; quantity <= 0 removes the line.
// It reports whether the line was removed.
func (s *Service) SetQuantity(ctx context.Context, c *model.Cart, itemID uint, quantity int) (removed bool, err error) {
	item, err := s.item(ctx, c, itemID)
	if err != nil {
		return false, err
	}
	db := s.db.WithContext(ctx)
	if quantity <= 0 {
		if err := db.Delete(&model.CartItem{}, item.ID).Error; err != nil {
			return false, fmt.Errorf("deleting cart item %d: %w", item.ID, err)
		}
		return true, nil
	}
	if err := db.Model(&model.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error; err != nil {
		return false, fmt.Errorf("updating cart item %d: %w", item.ID, err)
	}
	return false, nil
}

// RemoveItem deletes the line and returns it as it was.
func (s *Service) RemoveItem(ctx context.Context, c *model.Cart, itemID uint) (*model.CartItem, error) {
	item, err := s.item(ctx, c, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&model.CartItem{}, item.ID).Error; err != nil {
		return nil, fmt.Errorf("deleting cart item %d: %w", item.ID, err)
	}
	return item, nil
}

func (s *Service) item(ctx context.Context, c *model.Cart, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := s.db.WithContext(ctx).Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, c.ID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart item %d: %w", itemID, err)
	}
	return &item, nil
}

// Items loads the cart lines with product and category.
func (s *Service) Items(ctx context.Context, c *model.Cart) ([]model.CartItem, error) {
	return Items(s.db.WithContext(ctx), c.ID)
}

// Items reads cart lines through db, which may be a transaction.
func Items(db *gorm.DB, cartID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := db.Preload("Product.Category").
		Where("cart_id = ?", cartID).
		Order("added_at, id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("loading items of cart %d: %w", cartID, err)
	}
	return items, nil
}

// Clear deletes every line of the cart through db, which may be a transaction.
func Clear(db *gorm.DB, cartID uint) error {
	if err := db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		return fmt.Errorf("clearing cart %d: %w", cartID, err)
	}
	return nil
}

// ItemCount is the number of units in the owner's cart; it never creates a cart.
func (s *Service) ItemCount(ctx context.Context, owner identity.Identity) (int, error) {
	c, err := s.Find(ctx, owner)
	if err != nil || c == nil {
		return 0, err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("cart_id = ?", c.ID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting cart items: %w", err)
	}
	return int(count), nil
}

type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	OriginalSubtotal decimal.Decimal `json:"original_subtotal"`
	Discount         decimal.Decimal `json:"total_discount"`
	HasDiscounts     bool            `json:"has_discounts"`
	ItemCount        int             `json:"item_count"`
}

// ComputeTotals folds the lines; Discount is always OriginalSubtotal − Subtotal.
func ComputeTotals(items []model.CartItem) Totals {
	t := Totals{Subtotal: decimal.Zero, OriginalSubtotal: decimal.Zero}
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.Subtotal())
		t.OriginalSubtotal = t.OriginalSubtotal.Add(item.OriginalSubtotal())
		t.ItemCount += item.Quantity
		if item.DiscountPercentage.IsPositive() {
			t.HasDiscounts = true
		}
	}
	t.Discount = t.OriginalSubtotal.Sub(t.Subtotal)
	return t
}

const WelcomeCoupon = "WELCOME10"

type CouponResult int

const (
	CouponNone CouponResult = iota
	CouponAccepted
	CouponRejected
)

// ApplyCoupon validates a coupon code. Nothing is stored and totals are not
// affected.
func ApplyCoupon(code string) CouponResult {
	code = strings.TrimSpace(code)
	switch {
	case code == "":
		return CouponNone
	case strings.EqualFold(code, WelcomeCoupon):
		return CouponAccepted
	default:
		return CouponRejected
	}
}

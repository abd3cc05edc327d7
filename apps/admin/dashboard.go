// Package admin serves the staff back office read models. Status changes go
// through the owning services.
package admin

import (
	"context"
	"fmt"

	deliverymodel "go-boutique/apps/delivery/model"
	ordermodel "go-boutique/apps/order/model"
	productmodel "go-boutique/apps/product/model"
	reservationmodel "go-boutique/apps/reservation/model"
	usermodel "go-boutique/apps/user/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultPageSize = 20

type Stats struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	OrderCount          int64           `json:"order_count"`
	PendingOrders       int64           `json:"pending_orders"`
	UserCount           int64           `json:"user_count"`
	ProductCount        int64           `json:"product_count"`
	AvailableProducts   int64           `json:"available_products"`
	OpenDeliveries      int64           `json:"open_deliveries"`
	PendingReservations int64           `json:"pending_reservations"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Dashboard 后台首页统计，已取消的订单不计入销售额
func (s *Service) Dashboard(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	st := &Stats{}

	var sales decimal.NullDecimal
	err := db.Model(&ordermodel.Order{}).
		Where("status <> ?", ordermodel.StatusCancelled).
		Select("SUM(total)").
		Row().Scan(&sales)
	if err != nil {
		return nil, fmt.Errorf("summing sales: %w", err)
	}
	st.TotalSales = decimal.Zero
	if sales.Valid {
		st.TotalSales = sales.Decimal
	}

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&st.OrderCount, db.Model(&ordermodel.Order{})},
		{&st.PendingOrders, db.Model(&ordermodel.Order{}).Where("status = ?", ordermodel.StatusPending)},
		{&st.UserCount, db.Model(&usermodel.User{})},
		{&st.ProductCount, db.Model(&productmodel.Product{})},
		{&st.AvailableProducts, db.Model(&productmodel.Product{}).Where("available = ?", true)},
		{&st.OpenDeliveries, db.Model(&deliverymodel.Delivery{}).
			Where("status NOT IN ?", []deliverymodel.Status{deliverymodel.StatusDelivered, deliverymodel.StatusFailed})},
		{&st.PendingReservations, db.Model(&reservationmodel.Reservation{}).Where("status = ?", reservationmodel.StatusPending)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("dashboard count: %w", err)
		}
	}
	return st, nil
}

type Page struct {
	Number int `form:"page"`
	Size   int `form:"page_size"`
}

func (p Page) normalize() (limit, offset int) {
	size := p.Size
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	n := p.Number
	if n < 1 {
		n = 1
	}
	return size, (n - 1) * size
}

func statusIs[S ~string](status S) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", status)
	}
}

// Orders lists orders newest first, optionally by status.
func (s *Service) Orders(ctx context.Context, status ordermodel.Status, page Page) ([]ordermodel.Order, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&ordermodel.Order{}).Scopes(statusIs(status)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	limit, offset := page.normalize()
	var orders []ordermodel.Order
	err := db.Scopes(statusIs(status)).Preload("Delivery").Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// Reservations lists bookings by slot, soonest first, optionally by status.
func (s *Service) Reservations(ctx context.Context, status reservationmodel.Status, page Page) ([]reservationmodel.Reservation, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&reservationmodel.Reservation{}).Scopes(statusIs(status)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting reservations: %w", err)
	}
	limit, offset := page.normalize()
	var list []reservationmodel.Reservation
	err := db.Scopes(statusIs(status)).Preload("Product").Order("scheduled_at, id").Limit(limit).Offset(offset).Find(&list).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing reservations: %w", err)
	}
	return list, total, nil
}

// Users 用户列表
func (s *Service) Users(ctx context.Context, page Page) ([]usermodel.User, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&usermodel.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	limit, offset := page.normalize()
	var users []usermodel.User
	if err := db.Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

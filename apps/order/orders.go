package order

import (
	"context"
	"errors"
	"fmt"

	"go-boutique/apps/order/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"
	"go-boutique/pkg/identity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const EventStatusChanged = "order.status_changed"

var (
	ErrOrderNotFound = errs.NotFound("Order not found")
	ErrNoAccess      = errs.Forbidden("Немате пристап до оваа нарачка.")
	ErrInvalidStatus = errs.InvalidInput("Unknown order status")
	ErrOrderFinal    = errs.InvalidState("Нарачката е веќе завршена.")
)

type StatusChanged struct {
	OrderID uint         `json:"order_id"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
}

// Orders 已下订单的查询与后台状态维护
type Orders struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewOrders(db *gorm.DB, bus *events.Bus) *Orders {
	return &Orders{db: db, bus: bus}
}

// Get loads an order with its items and delivery.
func (s *Orders) Get(ctx context.Context, id uint) (*model.Order, error) {
	var o model.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Delivery.DeliveryOption").
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", id, err)
	}
	return &o, nil
}

// Confirmation applies the permissive viewer rule: guests and the owner may
// look, other logged-in customers may not.
func (s *Orders) Confirmation(ctx context.Context, viewer identity.Identity, id uint) (*model.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(o.UserID) {
		return nil, ErrNoAccess
	}
	return o, nil
}

// Detail is the logged-in view: owner or staff only.
func (s *Orders) Detail(ctx context.Context, viewer identity.Identity, id uint) (*model.Order, error) {
	if !viewer.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.Staff() && (o.UserID == nil || *o.UserID != viewer.UserID) {
		return nil, ErrNoAccess
	}
	return o, nil
}

// History lists the user's orders, newest first.
func (s *Orders) History(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("loading orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// UpdateStatus is the staff change of an order's status. Delivered and
// cancelled orders are final.
func (s *Orders) UpdateStatus(ctx context.Context, id uint, next model.Status) (*model.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	var (
		o    model.Order
		from model.Status
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		from = o.Status
		if from == next {
			return nil
		}
		if from.Terminal() {
			return ErrOrderFinal
		}
		o.Status = next
		return tx.Model(&o).Update("status", next).Error
	})
	if err != nil {
		return nil, fmt.Errorf("updating order %d: %w", id, err)
	}
	if from != next && s.bus != nil {
		s.bus.Publish(ctx, events.New(EventStatusChanged, StatusChanged{OrderID: o.ID, From: from, To: next}))
	}
	return &o, nil
}

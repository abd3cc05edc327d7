// Package delivery tracks the shipment of each order and its status history.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-boutique/apps/delivery/model"
	ordermodel "go-boutique/apps/order/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventStatusChanged = "delivery.status_changed"

	// CreatedNote is the first history entry of every delivery.
	CreatedNote = "Нарачката е креирана."
)

var (
	ErrDeliveryNotFound = errs.NotFound("Delivery not found")
	ErrOptionNotFound   = errs.NotFound("Delivery option not found")
)

type StatusChanged struct {
	DeliveryID uint         `json:"delivery_id"`
	OrderID    uint         `json:"order_id"`
	From       model.Status `json:"from"`
	To         model.Status `json:"to"`
}

type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	strict bool
	now    func() time.Time
}

func NewService(db *gorm.DB, bus *events.Bus, strict bool) *Service {
	return &Service{db: db, bus: bus, strict: strict, now: time.Now}
}

// ActiveOptions lists the selectable delivery options, cheapest first.
func (s *Service) ActiveOptions(ctx context.Context) ([]model.Option, error) {
	var options []model.Option
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("price, id").Find(&options).Error
	if err != nil {
		return nil, fmt.Errorf("loading delivery options: %w", err)
	}
	return options, nil
}

// Option resolves a delivery option by id, active or not.
func (s *Service) Option(ctx context.Context, id uint) (*model.Option, error) {
	var opt model.Option
	err := s.db.WithContext(ctx).First(&opt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading delivery option %d: %w", id, err)
	}
	return &opt, nil
}

// CreateTx opens the delivery of a new order inside the caller's transaction.
func (s *Service) CreateTx(tx *gorm.DB, orderID uint, option *model.Option) (*model.Delivery, error) {
	d := model.Delivery{
		OrderID: orderID,
		Status:  model.StatusCreated,
		History: []model.StatusHistory{{Status: model.StatusCreated, Notes: CreatedNote}},
	}
	if option != nil {
		d.DeliveryOptionID = &option.ID
	}
	if err := tx.Omit("DeliveryOption").Create(&d).Error; err != nil {
		return nil, fmt.Errorf("creating delivery for order %d: %w", orderID, err)
	}
	return &d, nil
}

type Update struct {
	Status         model.Status
	TrackingNumber *string
	CourierName    *string
	Notes          *string
}

// UpdateStatus applies a staff change. An empty Status keeps the current one.
// A status change stamps the first-arrival timestamp and appends one history
// row; the optional fields are written regardless.
func (s *Service) UpdateStatus(ctx context.Context, id uint, u Update) (*model.Delivery, error) {
	var (
		d       model.Delivery
		from    model.Status
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeliveryNotFound
		}
		if err != nil {
			return err
		}

		from = d.Status
		next := u.Status
		if next == "" {
			next = d.Status
		}
		if changed, err = ApplyStatus(&d, next, s.now(), s.strict); err != nil {
			return err
		}
		if u.TrackingNumber != nil {
			d.TrackingNumber = *u.TrackingNumber
		}
		if u.CourierName != nil {
			d.CourierName = *u.CourierName
		}
		if u.Notes != nil {
			d.Notes = *u.Notes
		}

		err = tx.Model(&d).Select("status", "packed_at", "shipped_at", "delivered_at", "tracking_number", "courier_name", "notes").
			Updates(&d).Error
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return tx.Create(&model.StatusHistory{
			DeliveryID: d.ID,
			Status:     d.Status,
			Notes:      HistoryNote(d.Status),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("updating delivery %d: %w", id, err)
	}

	if changed && s.bus != nil {
		s.bus.Publish(ctx, events.New(EventStatusChanged, StatusChanged{
			DeliveryID: d.ID,
			OrderID:    d.OrderID,
			From:       from,
			To:         d.Status,
		}))
	}
	return &d, nil
}

type Tracking struct {
	Delivery model.Delivery        `json:"delivery"`
	Order    ordermodel.Order      `json:"order"`
	History  []model.StatusHistory `json:"status_history"`
}

// Track loads a delivery with its order and history, newest entry first.
func (s *Service) Track(ctx context.Context, id uint) (*Tracking, error) {
	db := s.db.WithContext(ctx)

	var d model.Delivery
	err := db.Preload("DeliveryOption").First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading delivery %d: %w", id, err)
	}

	t := &Tracking{Delivery: d}
	if err := db.Preload("Items").First(&t.Order, d.OrderID).Error; err != nil {
		return nil, fmt.Errorf("loading order %d: %w", d.OrderID, err)
	}
	err = db.Where("delivery_id = ?", d.ID).Order("created_at DESC, id DESC").Find(&t.History).Error
	if err != nil {
		return nil, fmt.Errorf("loading history of delivery %d: %w", d.ID, err)
	}
	return t, nil
}

// Package reservation books fitting appointments.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	productmodel "go-boutique/apps/product/model"
	"go-boutique/apps/reservation/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"
	"go-boutique/pkg/identity"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	EventCreated = "reservation.created"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var (
	ErrReservationNotFound = errs.NotFound("Reservation not found")
	ErrProductNotFound     = errs.NotFound("Product not found")
	ErrNoAccess            = errs.Forbidden("Немате пристап до оваа резервација.")
	ErrInvalidInput        = errs.InvalidInput("Ве молиме пополнете ги задолжителните полиња.")
	ErrInvalidStatus       = errs.InvalidInput("Unknown reservation status")
	ErrSlotFull            = errs.New(errs.CodeConflict, "Избраниот термин е пополнет. Ве молиме изберете друг.")
)

// Input is the booking form.
type Input struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Phone     string `form:"phone" validate:"required,max=20"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Date      string `form:"reservation_date" validate:"required,datetime=2006-01-02"`
	Time      string `form:"reservation_time" validate:"required,hhmm"`
	Notes     string `form:"notes"`
	ProductID uint   `form:"product"`
}

type Created struct {
	ReservationID uint      `json:"reservation_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type Service struct {
	db       *gorm.DB
	bus      *events.Bus
	validate *validator.Validate
	capacity int
	loc      *time.Location
}

// NewService returns the booking service. capacity caps the holding
// reservations of one slot; 0 leaves slots unlimited.
func NewService(db *gorm.DB, bus *events.Bus, capacity int) *Service {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return &Service{db: db, bus: bus, validate: v, capacity: capacity, loc: time.Local}
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(TimeLayout, fl.Field().String())
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("registering hhmm validator: %w", err)
	}
	return v, nil
}

// Product resolves the product a booking form is opened for.
func (s *Service) Product(ctx context.Context, id uint) (*productmodel.Product, error) {
	var p productmodel.Product
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading product %d: %w", id, err)
	}
	return &p, nil
}

// ScheduledAt joins the form date and time in the shop's time zone.
func (s *Service) ScheduledAt(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, nil
}

// Create 创建预约，登录用户自动关联
func (s *Service) Create(ctx context.Context, who identity.Identity, in Input) (*model.Reservation, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	at, err := s.ScheduledAt(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	r := model.Reservation{
		UserID:      who.UserIDPtr(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		Email:       in.Email,
		ScheduledAt: at,
		Status:      model.StatusPending,
		Notes:       in.Notes,
	}
	if in.ProductID != 0 {
		if _, err := s.Product(ctx, in.ProductID); err != nil {
			return nil, err
		}
		pid := in.ProductID
		r.ProductID = &pid
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.capacity > 0 {
			// FOR UPDATE 锁住该时段的索引区间，并发预订排队计数
			var held int64
			err := tx.Model(&model.Reservation{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("scheduled_at = ? AND status IN ?", at, []model.Status{model.StatusPending, model.StatusConfirmed}).
				Count(&held).Error
			if err != nil {
				return err
			}
			if held >= int64(s.capacity) {
				return ErrSlotFull
			}
		}
		return tx.Omit("Product").Create(&r).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.New(EventCreated, Created{ReservationID: r.ID, ScheduledAt: r.ScheduledAt}))
	}
	return &r, nil
}

func (s *Service) load(ctx context.Context, id uint) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Preload("Product").First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading reservation %d: %w", id, err)
	}
	return &r, nil
}

// Get applies the same viewer rule as order confirmation.
func (s *Service) Get(ctx context.Context, viewer identity.Identity, id uint) (*model.Reservation, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanView(r.UserID) {
		return nil, ErrNoAccess
	}
	return r, nil
}

// ForUser lists a user's reservations, latest slot first.
func (s *Service) ForUser(ctx context.Context, userID uint) ([]model.Reservation, error) {
	var list []model.Reservation
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("scheduled_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("loading reservations of user %d: %w", userID, err)
	}
	return list, nil
}

// UpdateStatus sets any listed status; there is no transition table.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status model.Status) (*model.Reservation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == status {
		return r, nil
	}
	if err := s.db.WithContext(ctx).Model(&model.Reservation{}).Where("id = ?", r.ID).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("updating reservation %d: %w", id, err)
	}
	r.Status = status
	return r, nil
}

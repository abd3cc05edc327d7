package model

import (
	"time"

	productmodel "go-boutique/apps/product/model"
)

// Status 试衣预约状态
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var statusLabels = map[Status]string{
	StatusPending:   "На чекање",
	StatusConfirmed: "Потврдена",
	StatusCompleted: "Завршена",
	StatusCancelled: "Откажана",
	StatusNoShow:    "Не се појави",
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

// Holding statuses occupy their slot.
func (s Status) Holding() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Reservation struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	UserID      *uint                 `gorm:"index" json:"user_id,omitempty"`
	FirstName   string                `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName    string                `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone       string                `gorm:"type:varchar(20);not null" json:"phone"`
	Email       string                `gorm:"type:varchar(254)" json:"email"`
	ProductID   *uint                 `gorm:"index" json:"product_id,omitempty"`
	Product     *productmodel.Product `gorm:"constraint:OnDelete:SET NULL" json:"product,omitempty"`
	ScheduledAt time.Time             `gorm:"not null;index" json:"scheduled_at"`
	Status      Status                `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes       string                `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

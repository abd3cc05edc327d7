package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model        // 包含了 ID, CreatedAt, UpdatedAt, DeletedAt
	Username   string `gorm:"type:varchar(150);unique;not null" json:"username"`
	Password   string `gorm:"type:varchar(255);not null" json:"-"`
	Email      string `gorm:"type:varchar(254)" json:"email"`
	Role       string `gorm:"type:varchar(20);not null" json:"role"` // customer | staff
}

// Profile 用户扩展资料，注册时由事件订阅创建
type Profile struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User                 User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Phone                string    `gorm:"type:varchar(20)" json:"phone"`
	Address              string    `gorm:"type:varchar(255)" json:"address"`
	City                 string    `gorm:"type:varchar(100)" json:"city"`
	NewsletterSubscribed bool      `gorm:"not null" json:"newsletter_subscribed"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

func (Profile) TableName() string {
	return "user_profiles"
}

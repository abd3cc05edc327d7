// Package user manages customer accounts, logins and profiles.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-boutique/apps/user/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const EventRegistered = "user.registered"

var (
	ErrUserNotFound       = errs.NotFound("User not found")
	ErrUsernameTaken      = errs.New(errs.CodeConflict, "Корисничкото име е зафатено.")
	ErrInvalidCredentials = errs.New(errs.CodeUnauthorized, "Невалидно корисничко име или лозинка.")
	ErrInvalidInput       = errs.InvalidInput("Невалидни податоци за регистрација.")
	ErrWrongPassword      = errs.InvalidInput("Старата лозинка не е точна.")
)

type RegisterInput struct {
	Username  string `form:"username" validate:"required,max=150"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Password  string `form:"password1" validate:"required,min=8,max=72"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

type ProfileInput struct {
	Email                string `form:"email" validate:"omitempty,email,max=254"`
	Phone                string `form:"phone" validate:"max=20"`
	Address              string `form:"address" validate:"max=255"`
	City                 string `form:"city" validate:"max=100"`
	NewsletterSubscribed bool   `form:"-"` // checkbox, set by the handler
}

type Registered struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

type Service struct {
	db       *gorm.DB
	bus      *events.Bus
	tokens   *jwt.Manager
	validate *validator.Validate
}

func NewService(db *gorm.DB, bus *events.Bus, tokens *jwt.Manager) *Service {
	return &Service{db: db, bus: bus, tokens: tokens, validate: validator.New()}
}

// Register 注册新用户，密码 bcrypt 加密存储
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	db := s.db.WithContext(ctx)
	var cnt int64
	if err := db.Model(&model.User{}).Where("username = ?", in.Username).Count(&cnt).Error; err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if cnt > 0 {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u := model.User{
		Username: in.Username,
		Password: string(hashed),
		Email:    in.Email,
		Role:     identity.RoleCustomer,
	}
	if err := db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.New(EventRegistered, Registered{UserID: u.ID, Username: u.Username}))
	}
	return &u, nil
}

// Login 校验密码并签发 JWT
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}
	return &u, token, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", id, err)
	}
	return &u, nil
}

// ChangePassword 修改密码：先验证旧密码
func (s *Service) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}
	if err := s.validate.Var(newPassword, "required,min=8,max=72"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", string(hashed)).Error
}

// Promote grants the staff role.
func (s *Service) Promote(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Update("role", identity.RoleStaff)
	if res.Error != nil {
		return fmt.Errorf("promoting %s: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateProfile is the user.registered subscriber. It is idempotent.
func (s *Service) CreateProfile(ctx context.Context, ev events.Event) error {
	reg, ok := ev.Payload.(Registered)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	p := model.Profile{UserID: reg.UserID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error
}

// SubscribeProfiles wires profile creation to registration.
func (s *Service) SubscribeProfiles(bus *events.Bus) {
	bus.Subscribe(EventRegistered, s.CreateProfile)
}

// Profile returns the user's profile, creating it for users registered
// before the subscriber existed.
func (s *Service) Profile(ctx context.Context, userID uint) (*model.Profile, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	var p model.Profile
	err := s.db.WithContext(ctx).Where(model.Profile{UserID: userID}).FirstOrCreate(&p).Error
	if err != nil {
		return nil, fmt.Errorf("loading profile of user %d: %w", userID, err)
	}
	return &p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Update("email", in.Email).Error; err != nil {
			return err
		}
		p.Phone = in.Phone
		p.Address = in.Address
		p.City = in.City
		p.NewsletterSubscribed = in.NewsletterSubscribed
		return tx.Model(p).Select("phone", "address", "city", "newsletter_subscribed").Updates(p).Error
	})
	if err != nil {
		return nil, fmt.Errorf("updating profile of user %d: %w", userID, err)
	}
	return p, nil
}

package user

import (
	"context"
	"testing"
	"time"

	"go-boutique/apps/user/model"
	"go-boutique/pkg/config"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/jwt"
	"go-boutique/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T, subscribe bool) (*Service, *gorm.DB, *jwt.Manager) {
	db := testutil.NewDB(t, &model.User{}, &model.Profile{})
	tokens := jwt.NewManager(config.JWTConfig{Secret: "test-secret", Issuer: "go-boutique", Expiration: time.Hour})
	bus := events.NewBus(zap.NewNop())
	svc := NewService(db, bus, tokens)
	if subscribe {
		svc.SubscribeProfiles(bus)
	}
	return svc, db, tokens
}

func register(t *testing.T, svc *Service, username string) *model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: username, Email: username + "@example.com",
		Password: "s3cret-pass", Password2: "s3cret-pass",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_CreatesProfileThroughEvent(t *testing.T) {
	svc, db, _ := setup(t, true)
	u := register(t, svc, "elena")

	assert.Equal(t, identity.RoleCustomer, u.Role)
	assert.NotEqual(t, "s3cret-pass", u.Password)

	var p model.Profile
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&p).Error)
	assert.False(t, p.NewsletterSubscribed)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "elena", Password: "another-pass", Password2: "another-pass",
	})
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := setup(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "a", Password: "short", Password2: "short"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Username: "a", Password: "long-enough", Password2: "different!"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Username: "  ", Password: "long-enough", Password2: "long-enough"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := setup(t, true)
	ctx := context.Background()
	u := register(t, svc, "goran")

	got, token, err := svc.Login(ctx, "goran", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, identity.RoleCustomer, claims.Role)

	_, _, err = svc.Login(ctx, "goran", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestProfile_LazyCreateAndUpdate(t *testing.T) {
	svc, db, _ := setup(t, false)
	ctx := context.Background()
	u := register(t, svc, "ivana")

	var count int64
	require.NoError(t, db.Model(&model.Profile{}).Count(&count).Error)
	assert.Zero(t, count, "no subscriber, no profile yet")

	p, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	p, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{
		Email: "ivana@shop.mk", Phone: "071000000", City: "Ohrid", NewsletterSubscribed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ohrid", p.City)

	reloaded, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, reloaded.ID)
	assert.True(t, reloaded.NewsletterSubscribed)

	stored, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivana@shop.mk", stored.Email)

	_, err = svc.UpdateProfile(ctx, u.ID, ProfileInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePasswordAndPromote(t *testing.T) {
	svc, _, _ := setup(t, true)
	ctx := context.Background()
	u := register(t, svc, "stefan")

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.ID, "wrong", "new-password"), ErrWrongPassword)
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "s3cret-pass", "new-password"))
	_, _, err := svc.Login(ctx, "stefan", "new-password")
	require.NoError(t, err)

	require.NoError(t, svc.Promote(ctx, "stefan"))
	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleStaff, got.Role)
	assert.ErrorIs(t, svc.Promote(ctx, "ghost"), ErrUserNotFound)
}

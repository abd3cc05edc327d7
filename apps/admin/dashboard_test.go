package admin

import (
	"context"
	"testing"
	"time"

	deliverymodel "go-boutique/apps/delivery/model"
	ordermodel "go-boutique/apps/order/model"
	productmodel "go-boutique/apps/product/model"
	reservationmodel "go-boutique/apps/reservation/model"
	usermodel "go-boutique/apps/user/model"
	"go-boutique/pkg/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t,
		&usermodel.User{}, &productmodel.Category{}, &productmodel.Product{},
		&deliverymodel.Option{}, &ordermodel.Order{}, &ordermodel.OrderItem{},
		&deliverymodel.Delivery{}, &deliverymodel.StatusHistory{},
		&reservationmodel.Reservation{},
	)
	return NewService(db), db
}

func createOrder(t *testing.T, db *gorm.DB, status ordermodel.Status, total int64, delivery deliverymodel.Status) {
	t.Helper()
	o := ordermodel.Order{
		FirstName: "A", LastName: "B", Phone: "1", StreetAddress: "S", City: "C",
		PaymentMethod: "card", Status: status,
		Subtotal: decimal.NewFromInt(total), DeliveryCost: decimal.Zero,
		Discount: decimal.Zero, Total: decimal.NewFromInt(total),
		Delivery: &deliverymodel.Delivery{Status: delivery},
	}
	require.NoError(t, db.Create(&o).Error)
}

func TestDashboard(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	st, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, st.TotalSales.IsZero())

	createOrder(t, db, ordermodel.StatusPending, 1000, deliverymodel.StatusCreated)
	createOrder(t, db, ordermodel.StatusDelivered, 2650, deliverymodel.StatusDelivered)
	createOrder(t, db, ordermodel.StatusCancelled, 500, deliverymodel.StatusFailed)

	cat := productmodel.Category{Name: "Suit"}
	require.NoError(t, db.Create(&cat).Error)
	require.NoError(t, db.Create(&productmodel.Product{Name: "On", CategoryID: cat.ID, Price: decimal.NewFromInt(1), Available: true}).Error)
	require.NoError(t, db.Create(&productmodel.Product{Name: "Off", CategoryID: cat.ID, Price: decimal.NewFromInt(1)}).Error)
	require.NoError(t, db.Create(&usermodel.User{Username: "u", Password: "x", Role: "customer"}).Error)
	require.NoError(t, db.Create(&reservationmodel.Reservation{
		FirstName: "R", LastName: "S", Phone: "1", ScheduledAt: time.Now(), Status: reservationmodel.StatusPending,
	}).Error)

	st, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3650).Equal(st.TotalSales), st.TotalSales.String())
	assert.Equal(t, int64(3), st.OrderCount)
	assert.Equal(t, int64(1), st.PendingOrders)
	assert.Equal(t, int64(1), st.UserCount)
	assert.Equal(t, int64(2), st.ProductCount)
	assert.Equal(t, int64(1), st.AvailableProducts)
	assert.Equal(t, int64(1), st.OpenDeliveries)
	assert.Equal(t, int64(1), st.PendingReservations)
}

func TestOrders_FilterAndPage(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		createOrder(t, db, ordermodel.StatusPending, 100, deliverymodel.StatusCreated)
	}
	createOrder(t, db, ordermodel.StatusShipped, 100, deliverymodel.StatusShipped)

	all, total, err := svc.Orders(ctx, "", Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)
	require.NotNil(t, all[0].Delivery)

	pending, total, err := svc.Orders(ctx, ordermodel.StatusPending, Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, pending, 1)
}

func TestPageNormalize(t *testing.T) {
	limit, offset := Page{}.normalize()
	assert.Equal(t, DefaultPageSize, limit)
	assert.Zero(t, offset)

	limit, offset = Page{Number: 3, Size: 10}.normalize()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)

	limit, _ = Page{Size: 1000}.normalize()
	assert.Equal(t, DefaultPageSize, limit)
}

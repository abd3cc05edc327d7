package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go-boutique/apps/cart/model"
	"go-boutique/apps/product"
	productmodel "go-boutique/apps/product/model"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/money"
	"go-boutique/pkg/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t, &productmodel.Category{}, &productmodel.Product{}, &model.Cart{}, &model.CartItem{})
	return NewService(db, product.NewCatalog(db, nil)), db
}

func newProduct(t *testing.T, db *gorm.DB, name string, price string) productmodel.Product {
	t.Helper()
	var cat productmodel.Category
	require.NoError(t, db.FirstOrCreate(&cat, productmodel.Category{Name: "Suit"}).Error)
	p := productmodel.Product{Name: name, CategoryID: cat.ID, Price: decimal.RequireFromString(price), Available: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestGetOrCreate_OnePerOwner(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	anon := identity.Anonymous("sess-1")
	a, err := svc.GetOrCreate(ctx, anon)
	require.NoError(t, err)
	b, err := svc.GetOrCreate(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Nil(t, a.UserID)

	user := identity.Identity{UserID: 7, SessionKey: "sess-1"}
	c, err := svc.GetOrCreate(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
	require.NotNil(t, c.UserID)
	assert.Nil(t, c.SessionKey)

	var count int64
	require.NoError(t, db.Model(&model.Cart{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = svc.GetOrCreate(ctx, identity.Identity{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	svc, db := setup(t)
	owner := identity.Anonymous("race")

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.GetOrCreate(context.Background(), owner)
			if assert.NoError(t, err) {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, db.Model(&model.Cart{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItem_DiscountIsRunningMax(t *testing.T) {
	sequences := [][]string{
		{"10", "5", "15", "0"},
		{"0", "abc", "20,5", "20"},
		{"150", "10"},
		{"-5", "3"},
		{"", ""},
	}
	wants := []string{"15", "20.5", "100", "3", "0"}

	for i, seq := range sequences {
		t.Run(fmt.Sprintf("seq%d", i), func(t *testing.T) {
			svc, db := setup(t)
			ctx := context.Background()
			p := newProduct(t, db, "Veil", "100")
			c, err := svc.GetOrCreate(ctx, identity.Anonymous("s"))
			require.NoError(t, err)

			var last *AddResult
			for _, raw := range seq {
				last, err = svc.AddItem(ctx, c, p.ID, money.ParsePercent(raw))
				require.NoError(t, err)
			}
			assertDecimal(t, wants[i], last.Item.DiscountPercentage)
			assert.Equal(t, len(seq), last.Item.Quantity)

			items, err := svc.Items(ctx, c)
			require.NoError(t, err)
			require.Len(t, items, 1, "one line per product")
		})
	}
}

func TestAddItem_ResultFlags(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	p := newProduct(t, db, "Veil", "100")
	c, err := svc.GetOrCreate(ctx, identity.Anonymous("s"))
	require.NoError(t, err)

	res, err := svc.AddItem(ctx, c, p.ID, money.ParsePercent("10"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "Veil", res.Item.Product.Name)

	res, err = svc.AddItem(ctx, c, p.ID, money.ParsePercent("5"))
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.DiscountRaised)

	res, err = svc.AddItem(ctx, c, p.ID, money.ParsePercent("12"))
	require.NoError(t, err)
	assert.True(t, res.DiscountRaised)
	assert.Equal(t, 3, res.Item.Quantity)
}

func TestAddItem_UnavailableProduct(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	p := newProduct(t, db, "Veil", "100")
	require.NoError(t, db.Model(&p).Update("available", false).Error)
	c, err := svc.GetOrCreate(ctx, identity.Anonymous("s"))
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, c, p.ID, money.ParsePercent("0"))
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSetQuantityAndRemove(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	a := newProduct(t, db, "A", "10")
	b := newProduct(t, db, "B", "20")
	c, err := svc.GetOrCreate(ctx, identity.Anonymous("s"))
	require.NoError(t, err)
	other, err := svc.GetOrCreate(ctx, identity.Anonymous("other"))
	require.NoError(t, err)

	ra, err := svc.AddItem(ctx, c, a.ID, money.ParsePercent(""))
	require.NoError(t, err)
	rb, err := svc.AddItem(ctx, c, b.ID, money.ParsePercent(""))
	require.NoError(t, err)

	removed, err := svc.SetQuantity(ctx, c, ra.Item.ID, 4)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.SetQuantity(ctx, other, ra.Item.ID, 1)
	assert.ErrorIs(t, err, ErrItemNotFound, "lines of another cart are not reachable")
	assert.NotErrorIs(t, err, product.ErrProductNotFound)

	removed, err = svc.SetQuantity(ctx, c, rb.Item.ID, ParseQuantity("zero"))
	require.NoError(t, err)
	assert.True(t, removed)

	count, err := svc.ItemCount(ctx, identity.Anonymous("s"))
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	item, err := svc.RemoveItem(ctx, c, ra.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", item.Product.Name)

	_, err = svc.RemoveItem(ctx, c, ra.Item.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	count, err = svc.ItemCount(ctx, identity.Anonymous("s"))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItemCount_DoesNotCreateCart(t *testing.T) {
	svc, db := setup(t)
	count, err := svc.ItemCount(context.Background(), identity.Anonymous("fresh"))
	require.NoError(t, err)
	assert.Zero(t, count)

	var carts int64
	require.NoError(t, db.Model(&model.Cart{}).Count(&carts).Error)
	assert.Zero(t, carts)
}

func line(price, pct string, qty int) model.CartItem {
	return model.CartItem{
		Product:            productmodel.Product{Price: dec(price)},
		Quantity:           qty,
		DiscountPercentage: dec(pct),
	}
}

func TestComputeTotals(t *testing.T) {
	totals := ComputeTotals([]model.CartItem{
		line("1000", "0", 2),
		line("500", "10", 1),
	})
	assertDecimal(t, "2450", totals.Subtotal)
	assertDecimal(t, "2500", totals.OriginalSubtotal)
	assertDecimal(t, "50", totals.Discount)
	assert.True(t, totals.HasDiscounts)
	assert.Equal(t, 3, totals.ItemCount)

	empty := ComputeTotals(nil)
	assert.True(t, empty.Subtotal.IsZero())
	assert.False(t, empty.HasDiscounts)
}

func TestComputeTotals_DiscountIsExactDifference(t *testing.T) {
	prices := []string{"99.99", "0.01", "1234.56", "33.33", "7"}
	pcts := []string{"0", "12.5", "33.33", "100", "7.77"}
	for _, p := range prices {
		for _, d := range pcts {
			items := []model.CartItem{line(p, d, 3), line("19.99", "15", 2)}
			totals := ComputeTotals(items)
			assert.True(t, totals.Discount.Equal(totals.OriginalSubtotal.Sub(totals.Subtotal)))
			assert.False(t, totals.Discount.IsNegative())
		}
	}
}

func TestCartItem_UnitPriceRoundsToCents(t *testing.T) {
	assertDecimal(t, "84.99", line("99.99", "15", 1).UnitPrice())
	assertDecimal(t, "450", line("500", "10", 1).UnitPrice())
	assertDecimal(t, "1000", line("1000", "0", 2).UnitPrice())
}

func TestApplyCoupon(t *testing.T) {
	assert.Equal(t, CouponAccepted, ApplyCoupon("WELCOME10"))
	assert.Equal(t, CouponAccepted, ApplyCoupon(" welcome10 "))
	assert.Equal(t, CouponRejected, ApplyCoupon("SPRING"))
	assert.Equal(t, CouponNone, ApplyCoupon("  "))
}

package recommendation

import (
	"context"
	"fmt"
	"testing"
	"time"

	productmodel "go-boutique/apps/product/model"
	"go-boutique/apps/recommendation/model"
	"go-boutique/pkg/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type catalog struct {
	db    *gorm.DB
	clock time.Time
}

func newCatalog(t *testing.T) *catalog {
	db := testutil.NewDB(t, &productmodel.Category{}, &productmodel.Product{}, &model.Rule{})
	return &catalog{db: db, clock: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *catalog) category(t *testing.T, name, local string) productmodel.Category {
	t.Helper()
	cat := productmodel.Category{Name: name, NameLocal: local}
	require.NoError(t, c.db.Create(&cat).Error)
	return cat
}

func (c *catalog) product(t *testing.T, cat productmodel.Category, name, price string) productmodel.Product {
	t.Helper()
	c.clock = c.clock.Add(time.Minute)
	p := productmodel.Product{
		Name:       name,
		CategoryID: cat.ID,
		Price:      decimal.RequireFromString(price),
		Available:  true,
		CreatedAt:  c.clock,
	}
	require.NoError(t, c.db.Create(&p).Error)
	p.Category = cat
	return p
}

func (c *catalog) rule(t *testing.T, name string, priority int, pct string, trigger productmodel.Category, cats []productmodel.Category, products []productmodel.Product) model.Rule {
	t.Helper()
	r := model.Rule{
		Name:                  name,
		RuleType:              model.RuleCategoryBased,
		IsActive:              true,
		TriggerCategoryID:     &trigger.ID,
		RecommendedCategories: cats,
		RecommendedProducts:   products,
		DiscountPercentage:    decimal.RequireFromString(pct),
		Priority:              priority,
	}
	require.NoError(t, c.db.Create(&r).Error)
	return r
}

func productNames(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Product.Name
	}
	return out
}

func TestRecommend_EmptyCart(t *testing.T) {
	c := newCatalog(t)
	dress := c.category(t, "Wedding Dress", "Венчаница")
	acc := c.category(t, "Accessory", "Додаток")
	c.product(t, acc, "Veil", "50")
	c.rule(t, "Wedding accessories", 10, "15", dress, []productmodel.Category{acc}, nil)

	entries, err := NewEngine(c.db, Options{PerCategoryLimit: 4}).Recommend(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecommend_CategoryExpansion(t *testing.T) {
	c := newCatalog(t)
	dress := c.category(t, "Wedding Dress", "Венчаница")
	acc := c.category(t, "Accessory", "Додаток")
	suit := c.category(t, "Suit", "Костум")

	gown := c.product(t, dress, "Gown", "1000")
	veil := c.product(t, acc, "Veil", "100")
	for i := 0; i < 5; i++ {
		c.product(t, acc, fmt.Sprintf("Tiara %d", i), "40")
	}
	hidden := c.product(t, acc, "Hidden", "10")
	require.NoError(t, c.db.Model(&hidden).Update("available", false).Error)
	c.product(t, suit, "Suit", "300")

	c.rule(t, "Wedding accessories", 10, "15", dress, []productmodel.Category{acc}, nil)
	c.rule(t, "Suit accessories", 5, "10", suit, []productmodel.Category{acc}, nil)

	entries, err := NewEngine(c.db, Options{PerCategoryLimit: 4}).Recommend(context.Background(), []productmodel.Product{gown, veil})
	require.NoError(t, err)

	assert.Equal(t, []string{"Tiara 4", "Tiara 3", "Tiara 2", "Tiara 1"}, productNames(entries))
	for _, e := range entries {
		assert.True(t, e.DiscountPercentage.Equal(decimal.NewFromInt(15)))
		assert.True(t, e.DiscountedPrice.Equal(decimal.NewFromInt(34)))
		assert.True(t, e.Savings.Equal(decimal.NewFromInt(6)))
		assert.Equal(t, "Accessory", e.Product.Category.Name)
	}
}

func TestRecommend_DuplicatesAcrossRulesArePreserved(t *testing.T) {
	c := newCatalog(t)
	dress := c.category(t, "Formal Dress", "Свечен Фустан")
	acc := c.category(t, "Accessory", "Додаток")
	d := c.product(t, dress, "Evening Dress", "400")
	clutch := c.product(t, acc, "Clutch", "80")

	high := c.rule(t, "B rule", 10, "10", dress, nil, []productmodel.Product{clutch})
	low := c.rule(t, "A rule", 5, "25", dress, nil, []productmodel.Product{clutch})

	engine := NewEngine(c.db, Options{PerCategoryLimit: 4})
	entries, err := engine.Recommend(context.Background(), []productmodel.Product{d})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, high.ID, entries[0].RuleID)
	assert.True(t, entries[0].DiscountPercentage.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, low.ID, entries[1].RuleID)
	assert.True(t, entries[1].DiscountedPrice.Equal(decimal.NewFromInt(60)))

	deduped, err := NewEngine(c.db, Options{Dedupe: true}).Recommend(context.Background(), []productmodel.Product{d})
	require.NoError(t, err)
	require.Len(t, deduped, 1)
	assert.Equal(t, low.ID, deduped[0].RuleID)
}

func TestRecommend_OrderAndActiveFlag(t *testing.T) {
	c := newCatalog(t)
	suit := c.category(t, "Suit", "Костум")
	acc := c.category(t, "Accessory", "Додаток")
	s := c.product(t, suit, "Suit", "300")
	tie := c.product(t, acc, "Tie", "20")
	belt := c.product(t, acc, "Belt", "30")
	cuff := c.product(t, acc, "Cufflinks", "25")

	c.rule(t, "Zeta", 5, "5", suit, nil, []productmodel.Product{tie})
	c.rule(t, "Alpha", 5, "5", suit, nil, []productmodel.Product{belt})
	off := c.rule(t, "Top", 99, "50", suit, nil, []productmodel.Product{cuff})
	require.NoError(t, c.db.Model(&off).Update("is_active", false).Error)

	entries, err := NewEngine(c.db, Options{}).Recommend(context.Background(), []productmodel.Product{s})
	require.NoError(t, err)
	assert.Equal(t, []string{"Belt", "Tie"}, productNames(entries))
}

func TestRecommend_ProductTrigger(t *testing.T) {
	c := newCatalog(t)
	suit := c.category(t, "Suit", "Костум")
	acc := c.category(t, "Accessory", "Додаток")
	s := c.product(t, suit, "Tuxedo", "500")
	other := c.product(t, suit, "Blazer", "200")
	bow := c.product(t, acc, "Bow tie", "15")

	r := model.Rule{
		Name:                "Tuxedo bundle",
		RuleType:            model.RuleProductBased,
		IsActive:            true,
		TriggerProductID:    &s.ID,
		RecommendedProducts: []productmodel.Product{bow},
		DiscountPercentage:  decimal.NewFromInt(20),
	}
	require.NoError(t, c.db.Create(&r).Error)

	// only the trigger category selects rules by default
	entries, err := NewEngine(c.db, Options{}).Recommend(context.Background(), []productmodel.Product{s})
	require.NoError(t, err)
	assert.Empty(t, entries)

	engine := NewEngine(c.db, Options{ProductTriggers: true})
	entries, err = engine.Recommend(context.Background(), []productmodel.Product{s})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bow tie"}, productNames(entries))

	entries, err = engine.Recommend(context.Background(), []productmodel.Product{other})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPartition(t *testing.T) {
	acc := productmodel.Category{Slug: "accessory"}
	local := productmodel.Category{Slug: "extras", NameLocal: "Додатоци"}
	dress := productmodel.Category{Slug: "formal-dress", NameLocal: "Свечен Фустан"}

	var entries []Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, Entry{Product: productmodel.Product{ID: uint(i + 1), Category: acc}})
	}
	entries = append(entries,
		Entry{Product: productmodel.Product{ID: 10, Category: local}},
		Entry{Product: productmodel.Product{ID: 11, Category: dress}},
	)

	accessories, others := Partition(entries, 4)
	assert.Len(t, accessories, 4)
	assert.Equal(t, uint(1), accessories[0].Product.ID)
	require.Len(t, others, 1)
	assert.Equal(t, uint(11), others[0].Product.ID)

	assert.True(t, IsAccessory(local))
	assert.False(t, IsAccessory(dress))
}

func TestRecommend_PreviewPriceRoundsToCents(t *testing.T) {
	c := newCatalog(t)
	suit := c.category(t, "Suit", "Костум")
	acc := c.category(t, "Accessory", "Додаток")
	s := c.product(t, suit, "Suit", "300")
	tie := c.product(t, acc, "Tie", "33.33")
	c.rule(t, "Ties", 1, "12.5", suit, nil, []productmodel.Product{tie})

	entries, err := NewEngine(c.db, Options{PerCategoryLimit: 4}).Recommend(context.Background(), []productmodel.Product{s})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	// 33.33 × 0.875 = 29.16375
	assert.True(t, entries[0].DiscountedPrice.Equal(decimal.RequireFromString("29.16")))
	assert.True(t, entries[0].Savings.Equal(decimal.RequireFromString("4.17")))
}

// Package recommendation evaluates upsell rules against cart contents.
package recommendation

import (
	"context"
	"fmt"
	"strings"

	productmodel "go-boutique/apps/product/model"
	"go-boutique/apps/recommendation/model"
	"go-boutique/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Options struct {
	// Dedupe keeps one entry per product, the one with the best discount.
	Dedupe bool
	// PerCategoryLimit caps the products taken from each recommended
	// category of a rule; 0 means no cap.
	PerCategoryLimit int
	// ProductTriggers also fires rules whose trigger product is in the cart.
	// Off by default: only the trigger category selects rules.
	ProductTriggers bool
}

type Engine struct {
	db   *gorm.DB
	opts Options
}

func NewEngine(db *gorm.DB, opts Options) *Engine {
	return &Engine{db: db, opts: opts}
}

type Entry struct {
	Product            productmodel.Product `json:"product"`
	RuleID             uint                 `json:"rule_id"`
	DiscountPercentage decimal.Decimal      `json:"discount"`
	DiscountedPrice    decimal.Decimal      `json:"discounted_price"`
	Savings            decimal.Decimal      `json:"savings"`
}

func newEntry(p productmodel.Product, rule model.Rule) Entry {
	discounted := money.ApplyDiscount(p.Price, rule.DiscountPercentage)
	return Entry{
		Product:            p,
		RuleID:             rule.ID,
		DiscountPercentage: rule.DiscountPercentage,
		DiscountedPrice:    discounted,
		Savings:            p.Price.Sub(discounted),
	}
}

// Recommend returns the entries of every active rule triggered by the cart
// products, highest priority first. Products already in the cart are never
// suggested. An empty cart yields nil without touching the rules.
func (e *Engine) Recommend(ctx context.Context, cartProducts []productmodel.Product) ([]Entry, error) {
	if len(cartProducts) == 0 {
		return nil, nil
	}

	inCart := make([]uint, 0, len(cartProducts))
	categorySet := make(map[uint]struct{})
	categories := make([]uint, 0)
	for _, p := range cartProducts {
		inCart = append(inCart, p.ID)
		if _, ok := categorySet[p.CategoryID]; !ok {
			categorySet[p.CategoryID] = struct{}{}
			categories = append(categories, p.CategoryID)
		}
	}

	db := e.db.WithContext(ctx)
	trigger := db.Where("trigger_category_id IN ?", categories)
	if e.opts.ProductTriggers {
		trigger = trigger.Or("trigger_product_id IN ?", inCart)
	}
	var rules []model.Rule
	err := db.
		Preload("RecommendedCategories", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Where("is_active = ?", true).
		Where(trigger).
		Order("priority DESC, name, id").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("loading recommendation rules: %w", err)
	}

	var entries []Entry
	for _, rule := range rules {
		for _, category := range rule.RecommendedCategories {
			q := e.candidates(ctx, inCart).Where("products.category_id = ?", category.ID)
			if e.opts.PerCategoryLimit > 0 {
				q = q.Limit(e.opts.PerCategoryLimit)
			}
			var products []productmodel.Product
			if err := q.Find(&products).Error; err != nil {
				return nil, fmt.Errorf("expanding category %d of rule %d: %w", category.ID, rule.ID, err)
			}
			for _, p := range products {
				entries = append(entries, newEntry(p, rule))
			}
		}

		var products []productmodel.Product
		err := e.candidates(ctx, inCart).
			Joins("JOIN recommendation_rule_products rp ON rp.product_id = products.id").
			Where("rp.rule_id = ?", rule.ID).
			Find(&products).Error
		if err != nil {
			return nil, fmt.Errorf("loading products of rule %d: %w", rule.ID, err)
		}
		for _, p := range products {
			entries = append(entries, newEntry(p, rule))
		}
	}

	if e.opts.Dedupe {
		entries = dedupe(entries)
	}
	return entries, nil
}

func (e *Engine) candidates(ctx context.Context, exclude []uint) *gorm.DB {
	return e.db.WithContext(ctx).
		Model(&productmodel.Product{}).
		Joins("Category").
		Where("products.available = ?", true).
		Where("products.id NOT IN ?", exclude).
		Order("products.created_at DESC, products.id DESC")
}

// dedupe keeps the first position of each product with the largest discount
// seen for it.
func dedupe(entries []Entry) []Entry {
	index := make(map[uint]int, len(entries))
	out := entries[:0:0]
	for _, entry := range entries {
		i, seen := index[entry.Product.ID]
		if !seen {
			index[entry.Product.ID] = len(out)
			out = append(out, entry)
			continue
		}
		if entry.DiscountPercentage.GreaterThan(out[i].DiscountPercentage) {
			out[i] = entry
		}
	}
	return out
}

// IsAccessory reports whether a category holds accessories, by slug or by
// its Macedonian name.
func IsAccessory(c productmodel.Category) bool {
	return strings.Contains(strings.ToLower(c.Slug), "accessor") ||
		strings.Contains(strings.ToLower(c.NameLocal), "додато")
}

// Partition splits entries into accessories and everything else, keeping
// order and at most limit entries in each.
func Partition(entries []Entry, limit int) (accessories, others []Entry) {
	for _, entry := range entries {
		if IsAccessory(entry.Product.Category) {
			if len(accessories) < limit {
				accessories = append(accessories, entry)
			}
			continue
		}
		if len(others) < limit {
			others = append(others, entry)
		}
	}
	return accessories, others
}

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	deliverymodel "go-boutique/apps/delivery/model"
	"go-boutique/apps/product"
	productmodel "go-boutique/apps/product/model"
	recommendationmodel "go-boutique/apps/recommendation/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mediaRoot 商品图片目录，子目录名决定分类
const mediaRoot = "./static/products"

type seedCategory struct {
	name, local, slug, folder string
	sizes                     []productmodel.Size
	colors                    []productmodel.Color
	minPrice, maxPrice        int
	description               string
}

var (
	sizesFormal = []productmodel.Size{productmodel.SizeXS, productmodel.SizeS, productmodel.SizeM, productmodel.SizeL, productmodel.SizeXL}
	colorsFancy = []productmodel.Color{
		productmodel.ColorRed, productmodel.ColorBlue, productmodel.ColorGreen, productmodel.ColorPink, productmodel.ColorBurgundy,
		productmodel.ColorPurple, productmodel.ColorGold, productmodel.ColorSilver, productmodel.ColorEmerald, productmodel.ColorNavy,
	}
)

var seedCategories = []seedCategory{
	{
		name: productmodel.CategoryWeddingDress, local: "Венчаница", slug: "wedding-dress", folder: "wedding dresses",
		sizes:    []productmodel.Size{"36", "38", "40", "42", "44", "46", "48"},
		colors:   []productmodel.Color{productmodel.ColorWhite, productmodel.ColorIvory},
		minPrice: 25000, maxPrice: 45000,
		description: "Елегантен венчаница од нашата ексклузивна колекција.",
	},
	{
		name: productmodel.CategoryFormalDress, local: "Свечен Фустан", slug: "formal-dress", folder: "formal dresses",
		sizes: sizesFormal, colors: colorsFancy,
		minPrice: 8000, maxPrice: 18000,
		description: "Елегантен свечен фустан од нашата ексклузивна колекција.",
	},
	{
		name: productmodel.CategorySuit, local: "Костум", slug: "suit", folder: "suits",
		sizes:    []productmodel.Size{"46", "48", "50", "52", "54", "56"},
		colors:   []productmodel.Color{productmodel.ColorBlack, productmodel.ColorBlue, productmodel.ColorGray, productmodel.ColorNavy},
		minPrice: 15000, maxPrice: 30000,
		description: "Елегантен костум од нашата ексклузивна колекција.",
	},
	{
		name: productmodel.CategoryAccessory, local: "Додаток", slug: "accessory", folder: "accessories",
		sizes:    []productmodel.Size{productmodel.SizeUniversal},
		colors:   []productmodel.Color{productmodel.ColorGold, productmodel.ColorSilver, productmodel.ColorBlack, productmodel.ColorWhite},
		minPrice: 2000, maxPrice: 8000,
		description: "Елегантен додаток со уникатен дизајн.",
	},
	{
		name: "Women Winter Coat", local: "Женски Капут", slug: "women-winter-coat", folder: "winter coats - women",
		sizes: sizesFormal, colors: colorsFancy,
		minPrice: 12000, maxPrice: 25000,
		description: "Елегантен женски капут од нашата ексклузивна колекција.",
	},
	{
		name: "Men Winter Coat", local: "Машки Капут", slug: "men-winter-coat", folder: "winter coats -men",
		sizes: sizesFormal, colors: colorsFancy,
		minPrice: 12000, maxPrice: 25000,
		description: "Елегантен машки капут од нашата ексклузивна колекција.",
	},
}

var seedDeliveryOptions = []deliverymodel.Option{
	{
		Name: "Pickup at Salon", NameLocal: "Подигнување во Салон",
		Description: "Pick up directly at our boutique", DescriptionLocal: "Подигнете ја нарачката директно од нашиот бутик",
		Price: decimal.Zero, EstimatedDays: 0, IsActive: true,
	},
	{
		Name: "Standard Delivery", NameLocal: "Стандардна Достава",
		Description: "Delivery in 3-5 working days", DescriptionLocal: "3-5 работни дена",
		Price: decimal.NewFromInt(200), EstimatedDays: 4, IsActive: true,
	},
	{
		Name: "Express Delivery", NameLocal: "Експресна Достава",
		Description: "Next day delivery", DescriptionLocal: "Следен ден",
		Price: decimal.NewFromInt(500), EstimatedDays: 1, IsActive: true,
	},
}

// accessory bundles: trigger category, discount, priority
var seedRules = []struct {
	trigger  string
	discount int64
	priority int
}{
	{productmodel.CategoryWeddingDress, 15, 10},
	{productmodel.CategoryFormalDress, 10, 5},
	{productmodel.CategorySuit, 10, 5},
	{"Women Winter Coat", 15, 10},
	{"Men Winter Coat", 15, 10},
}

// Seed 初始化演示数据，可重复执行
func Seed(ctx context.Context, db *gorm.DB, es *product.ElasticSearcher, log *zap.Logger) error {
	return seed(ctx, db.WithContext(ctx), es, log, mediaRoot)
}

func seed(ctx context.Context, db *gorm.DB, es *product.ElasticSearcher, log *zap.Logger, root string) error {
	categories := make(map[string]*productmodel.Category, len(seedCategories))
	for _, sc := range seedCategories {
		cat := productmodel.Category{Name: sc.name}
		if err := db.Where(cat).Attrs(productmodel.Category{NameLocal: sc.local, Slug: sc.slug}).FirstOrCreate(&cat).Error; err != nil {
			return fmt.Errorf("seeding category %s: %w", sc.name, err)
		}
		categories[sc.name] = &cat
	}
	log.Info("categories ready", zap.Int("count", len(categories)))

	for _, opt := range seedDeliveryOptions {
		o := opt
		if err := db.Where(deliverymodel.Option{Name: o.Name}).Attrs(o).FirstOrCreate(&o).Error; err != nil {
			return fmt.Errorf("seeding delivery option %s: %w", opt.Name, err)
		}
	}

	created := 0
	for _, sc := range seedCategories {
		n, err := seedProducts(db, sc, categories[sc.name], root, log)
		if err != nil {
			return err
		}
		created += n
	}
	log.Info("products seeded", zap.Int("created", created))

	if err := seedRecommendationRules(db, categories); err != nil {
		return err
	}

	if es != nil {
		var products []productmodel.Product
		if err := db.Preload("Category").Find(&products).Error; err != nil {
			return err
		}
		if err := es.Reindex(ctx, products); err != nil {
			log.Warn("reindex failed, search falls back to SQL", zap.Error(err))
		}
	}
	return nil
}

// seedProducts creates one product per image file in the category folder.
func seedProducts(db *gorm.DB, sc seedCategory, cat *productmodel.Category, root string, log *zap.Logger) (int, error) {
	dir := filepath.Join(root, sc.folder)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Warn("image folder not found", zap.String("dir", dir))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	created := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".jpg" && ext != ".jpeg" && ext != ".png") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))

		var exists int64
		if err := db.Model(&productmodel.Product{}).Where("name = ? AND category_id = ?", name, cat.ID).Count(&exists).Error; err != nil {
			return created, err
		}
		if exists > 0 {
			continue
		}

		p := productmodel.Product{
			Name:        name,
			CategoryID:  cat.ID,
			Description: sc.description,
			Price:       decimal.NewFromInt(int64(sc.minPrice + rand.IntN(sc.maxPrice-sc.minPrice+1))),
			Size:        sc.sizes[rand.IntN(len(sc.sizes))],
			Color:       sc.colors[rand.IntN(len(sc.colors))],
			Available:   true,
			ImagePath:   sc.folder + "/" + e.Name(),
			IsFeatured:  rand.Float64() < 0.2,
			IsNew:       rand.Float64() < 0.3,
			IsPopular:   rand.Float64() < 0.25,
		}
		if err := db.Omit("Category").Create(&p).Error; err != nil {
			return created, fmt.Errorf("seeding product %s: %w", name, err)
		}
		created++
	}
	return created, nil
}

func seedRecommendationRules(db *gorm.DB, categories map[string]*productmodel.Category) error {
	accessory := categories[productmodel.CategoryAccessory]
	for _, sr := range seedRules {
		trigger := categories[sr.trigger]
		if trigger == nil || accessory == nil {
			continue
		}
		name := sr.trigger + " Accessories"
		var count int64
		if err := db.Model(&recommendationmodel.Rule{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		rule := recommendationmodel.Rule{
			Name:                  name,
			RuleType:              recommendationmodel.RuleCategoryBased,
			IsActive:              true,
			TriggerCategoryID:     &trigger.ID,
			RecommendedCategories: []productmodel.Category{*accessory},
			DiscountPercentage:    decimal.NewFromInt(sr.discount),
			Priority:              sr.priority,
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("seeding rule %s: %w", name, err)
		}
	}
	return nil
}

// Package product serves the read side of the catalog: home page sections,
// filtered listing and product detail.
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-boutique/apps/product/model"
	"go-boutique/pkg/errs"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PageSize     = 12
	homeSection  = 6
	relatedLimit = 4
)

var ErrProductNotFound = errs.NotFound("Product not found")

// categoryPriority orders the listing: dresses and suits first, coats, then
// accessories, then everything else.
const categoryPriority = `CASE
	WHEN Category.name = 'Wedding Dress' THEN 1
	WHEN Category.name = 'Formal Dress' THEN 2
	WHEN Category.name = 'Suit' THEN 3
	WHEN LOWER(Category.name) LIKE '%coat%' THEN 4
	WHEN Category.name = 'Accessory' THEN 5
	ELSE 6 END`

// Searcher finds product ids matching a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]uint, error)
}

// Indexer keeps an external search index in step with catalog writes.
type Indexer interface {
	Index(ctx context.Context, p model.Product) error
}

type Catalog struct {
	db       *gorm.DB
	searcher Searcher
}

// NewCatalog builds a Catalog. A nil searcher matches the query against
// product names in SQL. A searcher that is also an Indexer is refreshed on
// every availability change.
func NewCatalog(db *gorm.DB, searcher Searcher) *Catalog {
	return &Catalog{db: db, searcher: searcher}
}

type HomePage struct {
	Featured   []model.Product  `json:"featured_products"`
	New        []model.Product  `json:"new_products"`
	Popular    []model.Product  `json:"popular_products"`
	Categories []model.Category `json:"categories"`
}

// Home 首页：精选 / 新品 / 热销，各最多 6 个，不含配饰
func (c *Catalog) Home(ctx context.Context) (*HomePage, error) {
	page := &HomePage{}
	sections := []struct {
		flag string
		dst  *[]model.Product
	}{
		{"is_featured", &page.Featured},
		{"is_new", &page.New},
		{"is_popular", &page.Popular},
	}
	for _, s := range sections {
		err := c.available(ctx).
			Where("products."+s.flag+" = ?", true).
			Where("Category.name <> ?", model.CategoryAccessory).
			Order("products.created_at DESC").
			Limit(homeSection).
			Find(s.dst).Error
		if err != nil {
			return nil, fmt.Errorf("loading %s products: %w", s.flag, err)
		}
	}

	var err error
	if page.Categories, err = c.Categories(ctx); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	return categories, nil
}

type Filter struct {
	Category string
	Size     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Query    string
	Page     int
}

type ListPage struct {
	Products        []model.Product  `json:"products"`
	Categories      []model.Category `json:"categories"`
	Sizes           []model.Size     `json:"all_sizes"`
	CurrentCategory string           `json:"current_category,omitempty"`
	CurrentSize     string           `json:"current_size,omitempty"`
	Page            int              `json:"page"`
	Pages           int              `json:"pages"`
	Total           int64            `json:"total"`
}

// List 商品列表：筛选 + 分类优先级排序 + 分页
func (c *Catalog) List(ctx context.Context, f Filter) (*ListPage, error) {
	query := c.available(ctx)
	if f.Category != "" {
		query = query.Where("Category.slug = ?", f.Category)
	}
	if f.Size != "" {
		query = query.Where("products.size = ?", f.Size)
	}
	if f.MinPrice != nil {
		query = query.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.Query != "" {
		var err error
		if query, err = c.applySearch(ctx, query, f.Query); err != nil {
			return nil, err
		}
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}

	pages := int((total + PageSize - 1) / PageSize)
	if pages == 0 {
		pages = 1
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	var products []model.Product
	err := query.
		Order(categoryPriority).
		Order("products.created_at DESC").
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	categories, err := c.Categories(ctx)
	if err != nil {
		return nil, err
	}
	sizes, err := c.Sizes(ctx)
	if err != nil {
		return nil, err
	}

	return &ListPage{
		Products:        products,
		Categories:      categories,
		Sizes:           sizes,
		CurrentCategory: f.Category,
		CurrentSize:     f.Size,
		Page:            page,
		Pages:           pages,
		Total:           total,
	}, nil
}

func (c *Catalog) applySearch(ctx context.Context, query *gorm.DB, q string) (*gorm.DB, error) {
	if c.searcher == nil {
		return query.Where("LOWER(products.name) LIKE LOWER(?)", "%"+q+"%"), nil
	}
	ids, err := c.searcher.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	if len(ids) == 0 {
		return query.Where("1 = 0"), nil
	}
	return query.Where("products.id IN ?", ids), nil
}

// Sizes returns every size in the catalog in canonical order.
func (c *Catalog) Sizes(ctx context.Context) ([]model.Size, error) {
	var sizes []model.Size
	err := c.db.WithContext(ctx).Model(&model.Product{}).
		Where("size <> ''").
		Distinct("size").
		Pluck("size", &sizes).Error
	if err != nil {
		return nil, fmt.Errorf("loading sizes: %w", err)
	}
	sort.SliceStable(sizes, func(i, j int) bool {
		ri, rj := model.SizeRank(sizes[i]), model.SizeRank(sizes[j])
		if ri != rj {
			return ri < rj
		}
		return sizes[i] < sizes[j]
	})
	return sizes, nil
}

type DetailPage struct {
	Product model.Product   `json:"product"`
	Related []model.Product `json:"related_products"`
}

// Detail 商品详情 + 同类推荐
func (c *Catalog) Detail(ctx context.Context, id uint) (*DetailPage, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var related []model.Product
	err = c.available(ctx).
		Where("products.category_id = ? AND products.id <> ?", p.CategoryID, p.ID).
		Order("products.created_at DESC").
		Limit(relatedLimit).
		Find(&related).Error
	if err != nil {
		return nil, fmt.Errorf("loading related products: %w", err)
	}
	return &DetailPage{Product: *p, Related: related}, nil
}

// Get returns an available product with its category.
func (c *Catalog) Get(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	err := c.available(ctx).Where("products.id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading product %d: %w", id, err)
	}
	return &p, nil
}

// SetAvailability 上下架
func (c *Catalog) SetAvailability(ctx context.Context, id uint, available bool) error {
	var p model.Product
	err := c.db.WithContext(ctx).Select("id").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("loading product %d: %w", id, err)
	}
	if err := c.db.WithContext(ctx).Model(&p).Update("available", available).Error; err != nil {
		return fmt.Errorf("updating product %d: %w", id, err)
	}
	return c.reindex(ctx, id)
}

func (c *Catalog) reindex(ctx context.Context, id uint) error {
	idx, ok := c.searcher.(Indexer)
	if !ok {
		return nil
	}
	var p model.Product
	if err := c.db.WithContext(ctx).Joins("Category").First(&p, "products.id = ?", id).Error; err != nil {
		return fmt.Errorf("loading product %d: %w", id, err)
	}
	return idx.Index(ctx, p)
}

func (c *Catalog) available(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx).
		Model(&model.Product{}).
		Joins("Category").
		Where("products.available = ?", true)
}

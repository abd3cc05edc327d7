package model

import (
	"time"

	"go-boutique/pkg/slug"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Size 尺码
type Size string

const (
	SizeXS        Size = "XS"
	SizeS         Size = "S"
	SizeM         Size = "M"
	SizeL         Size = "L"
	SizeXL        Size = "XL"
	SizeXXL       Size = "XXL"
	SizeUniversal Size = "универзална"
)

// SizeOrder is the canonical display order: letter sizes, then numeric EU
// sizes, then one-size. Unknown sizes sort last.
var SizeOrder = []Size{
	SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL,
	"36", "38", "40", "42", "44", "46", "48", "50", "52", "54", "56",
	SizeUniversal,
}

func SizeRank(s Size) int {
	for i, v := range SizeOrder {
		if v == s {
			return i
		}
	}
	return len(SizeOrder)
}

// Color 颜色 (values are the stored Macedonian slugs)
type Color string

const (
	ColorWhite    Color = "бела"
	ColorBlack    Color = "црна"
	ColorRed      Color = "црвена"
	ColorBlue     Color = "сина"
	ColorGreen    Color = "зелена"
	ColorYellow   Color = "жолта"
	ColorPink     Color = "розова"
	ColorGray     Color = "сива"
	ColorBrown    Color = "кафена"
	ColorOrange   Color = "портокалова"
	ColorPurple   Color = "виолетова"
	ColorGold     Color = "златна"
	ColorSilver   Color = "сребрена"
	ColorIvory    Color = "слонова-коска"
	ColorBurgundy Color = "бордо"
	ColorNavy     Color = "темно-сина"
	ColorEmerald  Color = "смарагдна"
)

// Category names with a fixed position on the listing page.
const (
	CategoryWeddingDress = "Wedding Dress"
	CategoryFormalDress  = "Formal Dress"
	CategorySuit         = "Suit"
	CategoryAccessory    = "Accessory"
)

// Category 商品分类
type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	NameLocal string `gorm:"type:varchar(100)" json:"name_local"`
	Slug      string `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
}

// BeforeSave derives the slug from Name when none was given.
func (c *Category) BeforeSave(*gorm.DB) error {
	if c.Slug == "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}

// Product 商品
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    Category        `json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Size        Size            `gorm:"type:varchar(20)" json:"size"`
	Color       Color           `gorm:"type:varchar(20)" json:"color"`
	Available   bool            `gorm:"not null;index" json:"available"`
	ImagePath   string          `gorm:"type:varchar(255)" json:"image_path"`
	IsFeatured  bool            `gorm:"not null" json:"is_featured"`
	IsNew       bool            `gorm:"not null" json:"is_new"`
	IsPopular   bool            `gorm:"not null" json:"is_popular"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ImageURL 图片访问路径
func (p Product) ImageURL() string {
	if p.ImagePath == "" {
		return ""
	}
	return "/static/products/" + p.ImagePath
}

func (Product) TableName() string {
	return "products"
}

func (Category) TableName() string {
	return "categories"
}

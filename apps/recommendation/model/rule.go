package model

import (
	productmodel "go-boutique/apps/product/model"

	"github.com/shopspring/decimal"
)

type RuleType string

const (
	RuleCategoryBased RuleType = "category_based"
	RuleProductBased  RuleType = "product_based"
	RuleBundle        RuleType = "bundle"
)

// Rule 推荐规则：购物车命中触发分类/商品时，推荐指定分类和商品
type Rule struct {
	ID                    uint                    `gorm:"primaryKey" json:"id"`
	Name                  string                  `gorm:"type:varchar(200);not null" json:"name"`
	RuleType              RuleType                `gorm:"type:varchar(20);not null" json:"rule_type"`
	IsActive              bool                    `gorm:"not null;index" json:"is_active"`
	TriggerCategoryID     *uint                   `gorm:"index" json:"trigger_category_id,omitempty"`
	TriggerCategory       *productmodel.Category  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TriggerProductID      *uint                   `gorm:"index" json:"trigger_product_id,omitempty"`
	TriggerProduct        *productmodel.Product   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecommendedCategories []productmodel.Category `gorm:"many2many:recommendation_rule_categories;" json:"recommended_categories,omitempty"`
	RecommendedProducts   []productmodel.Product  `gorm:"many2many:recommendation_rule_products;" json:"recommended_products,omitempty"`
	DiscountPercentage    decimal.Decimal         `gorm:"type:decimal(5,2);not null" json:"discount_percentage"`
	Priority              int                     `gorm:"not null;index" json:"priority"`
}

func (Rule) TableName() string {
	return "recommendation_rules"
}

// Package schema lists every persisted model for migrations.
package schema

import (
	"fmt"

	cartmodel "go-boutique/apps/cart/model"
	deliverymodel "go-boutique/apps/delivery/model"
	ordermodel "go-boutique/apps/order/model"
	productmodel "go-boutique/apps/product/model"
	recommendationmodel "go-boutique/apps/recommendation/model"
	reservationmodel "go-boutique/apps/reservation/model"
	usermodel "go-boutique/apps/user/model"

	"gorm.io/gorm"
)

// Models in dependency order.
func Models() []any {
	return []any{
		&usermodel.User{},
		&usermodel.Profile{},
		&productmodel.Category{},
		&productmodel.Product{},
		&cartmodel.Cart{},
		&cartmodel.CartItem{},
		&recommendationmodel.Rule{},
		&deliverymodel.Option{},
		&ordermodel.Order{},
		&ordermodel.OrderItem{},
		&deliverymodel.Delivery{},
		&deliverymodel.StatusHistory{},
		&reservationmodel.Reservation{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

package main

import (
	"go-boutique/apps/admin"
	"go-boutique/apps/cart"
	"go-boutique/apps/delivery"
	"go-boutique/apps/order"
	"go-boutique/apps/product"
	"go-boutique/apps/recommendation"
	"go-boutique/apps/reservation"
	"go-boutique/apps/user"
	"go-boutique/pkg/config"
	"go-boutique/pkg/events"
	"go-boutique/pkg/jwt"
	"go-boutique/pkg/session"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 持有所有业务服务，供 handler 使用
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  session.Store
	tokens *jwt.Manager
	bus    *events.Bus

	catalog      *product.Catalog
	carts        *cart.Service
	recommender  *recommendation.Engine
	deliveries   *delivery.Service
	checkout     *order.Checkout
	orders       *order.Orders
	reservations *reservation.Service
	users        *user.Service
	admin        *admin.Service

	deliveryEstimate decimal.Decimal
	rateLimit        bool
}

// NewApp wires the services. searcher may be nil. Profile creation is
// subscribed to registration here.
func NewApp(cfg *config.Config, log *zap.Logger, db *gorm.DB, store session.Store, bus *events.Bus, searcher product.Searcher) *App {
	a := &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		store:  store,
		tokens: jwt.NewManager(cfg.JWT),
		bus:    bus,
	}

	a.catalog = product.NewCatalog(db, searcher)
	a.carts = cart.NewService(db, a.catalog)
	a.recommender = recommendation.NewEngine(db, recommendation.Options{
		Dedupe:           cfg.Recommendation.Dedupe,
		ProductTriggers:  cfg.Recommendation.ProductTriggers,
		PerCategoryLimit: cfg.Recommendation.PerCategoryLimit,
	})
	a.deliveries = delivery.NewService(db, bus, cfg.Delivery.StrictTransitions)
	a.checkout = order.NewCheckout(db, a.carts, a.deliveries, bus, log, cfg.Checkout.StateTTL)
	a.orders = order.NewOrders(db, bus)
	a.reservations = reservation.NewService(db, bus, cfg.Reservation.SlotCapacity)
	a.users = user.NewService(db, bus, a.tokens)
	a.admin = admin.NewService(db)

	a.users.SubscribeProfiles(bus)

	a.deliveryEstimate = decimal.NewFromInt(200)
	if d, err := decimal.NewFromString(cfg.Checkout.DeliveryEstimate); err == nil {
		a.deliveryEstimate = d
	}
	return a
}

package main

import (
	"errors"
	"net/http"
	"strconv"

	"go-boutique/apps/storefront/middleware"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/logger"
	"go-boutique/pkg/metrics"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Router 注册全部路由
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(logger.Recovery(a.log), logger.GinMiddleware(a.log), metrics.PrometheusMiddleware())
	if a.cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(a.cfg.Service.Name))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", metrics.Handler())
	r.Static("/static", "./static")

	site := r.Group("/", session.Middleware(a.store, a.cfg.Session), middleware.Identity(a.tokens))
	login := middleware.RequireLogin()

	// 商品
	site.GET("/", a.home)
	site.GET("/products", a.productList)
	site.GET("/products/:id", a.productDetail)

	// 购物车
	site.GET("/cart", a.cartDetail)
	site.GET("/cart/count", a.cartCount)
	site.POST("/cart/add/:product_id", a.limit(middleware.ResCartAdd), a.cartAdd)
	site.POST("/cart/update/:item_id", a.cartUpdate)
	site.POST("/cart/remove/:item_id", a.cartRemove)
	site.POST("/cart/coupon", a.cartCoupon)

	// 结算
	site.GET("/checkout/delivery", a.checkoutDelivery)
	site.POST("/checkout/delivery", a.checkoutDeliverySubmit)
	site.GET("/checkout/payment", a.checkoutPayment)
	site.POST("/checkout/payment", a.limit(middleware.ResPlaceOrder), a.checkoutPlaceOrder)

	// 订单与配送
	site.GET("/orders/:id/confirmation", a.orderConfirmation)
	site.GET("/orders", login, a.orderHistory)
	site.GET("/orders/:id", login, a.orderDetail)
	site.GET("/delivery/:id/track", a.trackDelivery)

	// 试衣预约
	site.GET("/reservations/new", a.reservationForm)
	site.POST("/reservations/new", a.reservationCreate)
	site.GET("/reservations/:id", a.reservationConfirmation)
	site.GET("/reservations", login, a.myReservations)

	// 账户
	site.GET("/accounts/register", a.registerForm)
	site.POST("/accounts/register", a.register)
	site.GET("/accounts/login", a.loginForm)
	site.POST("/accounts/login", a.login)
	site.POST("/accounts/logout", login, a.logout)
	site.GET("/accounts/profile", login, a.profile)
	site.POST("/accounts/profile", login, a.profileUpdate)

	// 后台
	staff := site.Group("/admin", middleware.RequireStaff())
	{
		staff.GET("", a.adminDashboard)
		staff.GET("/orders", a.adminOrders)
		staff.POST("/orders/:id/status", a.adminOrderStatus)
		staff.POST("/deliveries/:id/status", a.adminDeliveryStatus)
		staff.GET("/reservations", a.adminReservations)
		staff.POST("/reservations/:id/status", a.adminReservationStatus)
		staff.POST("/products/:id/availability", a.adminProductAvailability)
		staff.GET("/users", a.adminUsers)
	}

	return r
}

func (a *App) limit(resource string) gin.HandlerFunc {
	if !a.rateLimit {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RateLimit(resource)
}

// idParam parses a positive numeric path parameter. A malformed id is
// treated like a missing record.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

// fail answers not-found with a 404 envelope and sends every other domain
// error back to `back` with a flash message. Unexpected errors are 500s.
func (a *App) fail(c *gin.Context, err error, back string) {
	var de *errs.DomainError
	if !errors.As(err, &de) {
		logger.FromGin(c).Error("request failed", zap.Error(err))
		response.Fail(c, err)
		return
	}
	switch de.Code {
	case errs.CodeNotFound:
		response.Fail(c, err)
	case errs.CodeInvalidState, errs.CodeUnauthorized:
		response.Redirect(c, back, session.LevelWarning, de.Message)
	default:
		response.Redirect(c, back, session.LevelError, de.Message)
	}
}

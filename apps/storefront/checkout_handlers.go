package main

import (
	"errors"
	"fmt"

	"go-boutique/apps/order"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

// checkoutBack picks where a failed checkout step sends the visitor.
func checkoutBack(err error, current string) string {
	switch {
	case errors.Is(err, order.ErrCartEmpty):
		return "/cart"
	case errors.Is(err, order.ErrNoDeliveryInfo):
		return "/checkout/delivery"
	default:
		return current
	}
}

func (a *App) checkoutDelivery(c *gin.Context) {
	page, err := a.checkout.DeliveryStep(c.Request.Context(), session.From(c), identity.From(c))
	if err != nil {
		a.fail(c, err, checkoutBack(err, "/cart"))
		return
	}
	response.Success(c, page)
}

func (a *App) checkoutDeliverySubmit(c *gin.Context) {
	var info order.DeliveryInfo
	if err := c.ShouldBind(&info); err != nil {
		response.Redirect(c, "/checkout/delivery", session.LevelError, order.ErrInvalidInfo.Message)
		return
	}
	err := a.checkout.SubmitDelivery(c.Request.Context(), session.From(c), identity.From(c), info)
	if err != nil {
		a.fail(c, err, checkoutBack(err, "/checkout/delivery"))
		return
	}
	response.Redirect(c, "/checkout/payment", "", "")
}

func (a *App) checkoutPayment(c *gin.Context) {
	page, err := a.checkout.PaymentStep(c.Request.Context(), session.From(c), identity.From(c))
	if err != nil {
		a.fail(c, err, checkoutBack(err, "/checkout/delivery"))
		return
	}
	response.Success(c, page)
}

func (a *App) checkoutPlaceOrder(c *gin.Context) {
	o, err := a.checkout.PlaceOrder(c.Request.Context(), session.From(c), identity.From(c), c.PostForm("payment_method"))
	if err != nil {
		a.fail(c, err, checkoutBack(err, "/checkout/payment"))
		return
	}
	response.Redirect(c, fmt.Sprintf("/orders/%d/confirmation", o.ID), session.LevelSuccess,
		fmt.Sprintf("Нарачката %s е успешно креирана!", o.Number()))
}

func (a *App) orderConfirmation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := a.orders.Confirmation(c.Request.Context(), identity.From(c), id)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"order": o, "order_number": o.Number()})
}

func (a *App) orderHistory(c *gin.Context) {
	orders, err := a.orders.History(c.Request.Context(), identity.From(c).UserID)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

func (a *App) orderDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := a.orders.Detail(c.Request.Context(), identity.From(c), id)
	if err != nil {
		a.fail(c, err, "/orders")
		return
	}
	response.Success(c, gin.H{"order": o, "order_number": o.Number()})
}

func (a *App) trackDelivery(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tr, err := a.deliveries.Track(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, tr)
}

package main

import (
	"fmt"
	"net/http"
	"strconv"

	"go-boutique/apps/admin"
	"go-boutique/apps/delivery"
	deliverymodel "go-boutique/apps/delivery/model"
	ordermodel "go-boutique/apps/order/model"
	reservationmodel "go-boutique/apps/reservation/model"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

func (a *App) adminDashboard(c *gin.Context) {
	stats, err := a.admin.Dashboard(c.Request.Context())
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, stats)
}

func bindPage(c *gin.Context) admin.Page {
	var p admin.Page
	_ = c.ShouldBindQuery(&p)
	return p
}

func (a *App) adminOrders(c *gin.Context) {
	status := ordermodel.Status(c.Query("status"))
	orders, total, err := a.admin.Orders(c.Request.Context(), status, bindPage(c))
	if err != nil {
		a.fail(c, err, "/admin")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total, "status": status})
}

func (a *App) adminOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := a.orders.UpdateStatus(c.Request.Context(), id, ordermodel.Status(c.PostForm("status")))
	if err != nil {
		a.fail(c, err, "/admin/orders")
		return
	}
	response.Redirect(c, "/admin/orders", session.LevelSuccess,
		fmt.Sprintf("Статусот на нарачката %s е: %s.", o.Number(), o.Status.Label()))
}

// optionalForm returns nil when the field was not posted at all.
func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

func (a *App) adminDeliveryStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u := delivery.Update{
		Status:         deliverymodel.Status(c.PostForm("status")),
		TrackingNumber: optionalForm(c, "tracking_number"),
		CourierName:    optionalForm(c, "courier_name"),
		Notes:          optionalForm(c, "notes"),
	}
	d, err := a.deliveries.UpdateStatus(c.Request.Context(), id, u)
	if err != nil {
		a.fail(c, err, "/admin/orders")
		return
	}
	response.Redirect(c, "/admin/orders", session.LevelSuccess,
		fmt.Sprintf("Статусот на испораката е: %s.", d.Status.Label()))
}

func (a *App) adminReservations(c *gin.Context) {
	status := reservationmodel.Status(c.Query("status"))
	list, total, err := a.admin.Reservations(c.Request.Context(), status, bindPage(c))
	if err != nil {
		a.fail(c, err, "/admin")
		return
	}
	response.Success(c, gin.H{"reservations": list, "total": total, "status": status})
}

func (a *App) adminReservationStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := a.reservations.UpdateStatus(c.Request.Context(), id, reservationmodel.Status(c.PostForm("status")))
	if err != nil {
		a.fail(c, err, "/admin/reservations")
		return
	}
	response.Redirect(c, "/admin/reservations", session.LevelSuccess,
		fmt.Sprintf("Статусот на резервацијата е: %s.", r.Status.Label()))
}

func (a *App) adminProductAvailability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	available, err := strconv.ParseBool(c.PostForm("available"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid available flag")
		return
	}
	if err := a.catalog.SetAvailability(c.Request.Context(), id, available); err != nil {
		a.fail(c, err, "/admin")
		return
	}
	response.Success(c, gin.H{"id": id, "available": available})
}

func (a *App) adminUsers(c *gin.Context) {
	users, total, err := a.admin.Users(c.Request.Context(), bindPage(c))
	if err != nil {
		a.fail(c, err, "/admin")
		return
	}
	response.Success(c, gin.H{"users": users, "total": total})
}

package main

import (
	"fmt"
	"strconv"

	"go-boutique/apps/reservation"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

// reservationForm 预约表单，可带 ?product= 预选商品
func (a *App) reservationForm(c *gin.Context) {
	data := gin.H{"date_format": reservation.DateLayout, "time_format": reservation.TimeLayout}
	if raw := c.Query("product"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			a.fail(c, reservation.ErrProductNotFound, "/")
			return
		}
		p, err := a.reservations.Product(c.Request.Context(), uint(id))
		if err != nil {
			a.fail(c, err, "/")
			return
		}
		data["product"] = p
	}
	response.Success(c, data)
}

func (a *App) reservationCreate(c *gin.Context) {
	back := "/reservations/new"
	if p := c.Query("product"); p != "" {
		back += "?product=" + p
	}

	var in reservation.Input
	if err := c.ShouldBind(&in); err != nil {
		response.Redirect(c, back, session.LevelError, reservation.ErrInvalidInput.Message)
		return
	}
	if in.ProductID == 0 {
		if id, err := strconv.ParseUint(c.Query("product"), 10, 64); err == nil {
			in.ProductID = uint(id)
		}
	}

	r, err := a.reservations.Create(c.Request.Context(), identity.From(c), in)
	if err != nil {
		a.fail(c, err, back)
		return
	}
	response.Redirect(c, fmt.Sprintf("/reservations/%d", r.ID), session.LevelSuccess, "Вашата резервација е успешно креирана!")
}

func (a *App) reservationConfirmation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := a.reservations.Get(c.Request.Context(), identity.From(c), id)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"reservation": r, "status_label": r.Status.Label()})
}

func (a *App) myReservations(c *gin.Context) {
	list, err := a.reservations.ForUser(c.Request.Context(), identity.From(c).UserID)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"reservations": list})
}

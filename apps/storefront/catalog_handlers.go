package main

import (
	"strconv"

	"go-boutique/apps/product"
	"go-boutique/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (a *App) home(c *gin.Context) {
	page, err := a.catalog.Home(c.Request.Context())
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, page)
}

// priceQuery ignores values that are not numbers.
func priceQuery(c *gin.Context, name string) *decimal.Decimal {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

func (a *App) productList(c *gin.Context) {
	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	page, err := a.catalog.List(c.Request.Context(), product.Filter{
		Category: c.Query("category"),
		Size:     c.Query("size"),
		MinPrice: priceQuery(c, "min_price"),
		MaxPrice: priceQuery(c, "max_price"),
		Query:    c.Query("search"),
		Page:     pageNum,
	})
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, page)
}

func (a *App) productDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	page, err := a.catalog.Detail(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err, "/products")
		return
	}
	response.Success(c, page)
}

package main

import (
	"fmt"

	"go-boutique/apps/cart"
	cartmodel "go-boutique/apps/cart/model"
	productmodel "go-boutique/apps/product/model"
	"go-boutique/apps/recommendation"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/metrics"
	"go-boutique/pkg/money"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartLine struct {
	cartmodel.CartItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Items                  []cartLine             `json:"items"`
	Totals                 cart.Totals            `json:"totals"`
	DeliveryCost           decimal.Decimal        `json:"delivery_cost"`
	Total                  decimal.Decimal        `json:"total"`
	RecommendedAccessories []recommendation.Entry `json:"recommended_accessories"`
	RecommendedProducts    []recommendation.Entry `json:"recommended_products"`
}

func lines(items []cartmodel.CartItem) []cartLine {
	out := make([]cartLine, 0, len(items))
	for _, item := range items {
		out = append(out, cartLine{CartItem: item, UnitPrice: item.UnitPrice(), Subtotal: item.Subtotal()})
	}
	return out
}

// cartDetail 购物车页：明细、合计、预估运费与推荐商品
func (a *App) cartDetail(c *gin.Context) {
	ctx := c.Request.Context()
	ct, err := a.carts.GetOrCreate(ctx, identity.From(c))
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	items, err := a.carts.Items(ctx, ct)
	if err != nil {
		a.fail(c, err, "/")
		return
	}

	products := make([]productmodel.Product, 0, len(items))
	for _, item := range items {
		products = append(products, item.Product)
	}
	entries, err := a.recommender.Recommend(ctx, products)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	accessories, others := recommendation.Partition(entries, a.cfg.Recommendation.DisplayLimit)

	totals := cart.ComputeTotals(items)
	response.Success(c, cartView{
		Items:                  lines(items),
		Totals:                 totals,
		DeliveryCost:           a.deliveryEstimate,
		Total:                  totals.Subtotal.Add(a.deliveryEstimate),
		RecommendedAccessories: accessories,
		RecommendedProducts:    others,
	})
}

func (a *App) cartCount(c *gin.Context) {
	count, err := a.carts.ItemCount(c.Request.Context(), identity.From(c))
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"cart_item_count": count})
}

func (a *App) cartAdd(c *gin.Context) {
	pid, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ct, err := a.carts.GetOrCreate(ctx, identity.From(c))
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	res, err := a.carts.AddItem(ctx, ct, pid, money.ParsePercent(c.PostForm("discount")))
	metrics.RecordOperation("cart_add", err == nil)
	if err != nil {
		a.fail(c, err, "/cart")
		return
	}

	name := res.Item.Product.Name
	pct := res.Item.DiscountPercentage
	var msg string
	switch {
	case res.Created && pct.IsPositive():
		msg = fmt.Sprintf("%s е додаден во кошничката со %s%% попуст!", name, pct.StringFixed(0))
	case res.Created:
		msg = fmt.Sprintf("%s е додаден во кошничката.", name)
	case res.DiscountRaised:
		msg = fmt.Sprintf("Количината на %s е зголемена и попустот е ажуриран!", name)
	default:
		msg = fmt.Sprintf("Количината на %s е зголемена.", name)
	}
	response.Redirect(c, "/cart", session.LevelSuccess, msg)
}

func (a *App) cartUpdate(c *gin.Context) {
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ct, err := a.carts.GetOrCreate(ctx, identity.From(c))
	if err != nil {
		a.fail(c, err, "/cart")
		return
	}
	removed, err := a.carts.SetQuantity(ctx, ct, itemID, cart.ParseQuantity(c.DefaultPostForm("quantity", "1")))
	if err != nil {
		a.fail(c, err, "/cart")
		return
	}
	if removed {
		response.Redirect(c, "/cart", session.LevelSuccess, "Производот е отстранет од кошничката.")
		return
	}
	response.Redirect(c, "/cart", session.LevelSuccess, "Количината е ажурирана.")
}

func (a *App) cartRemove(c *gin.Context) {
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ct, err := a.carts.GetOrCreate(ctx, identity.From(c))
	if err != nil {
		a.fail(c, err, "/cart")
		return
	}
	item, err := a.carts.RemoveItem(ctx, ct, itemID)
	if err != nil {
		a.fail(c, err, "/cart")
		return
	}
	response.Redirect(c, "/cart", session.LevelSuccess, fmt.Sprintf("%s е отстранет од кошничката.", item.Product.Name))
}

func (a *App) cartCoupon(c *gin.Context) {
	switch cart.ApplyCoupon(c.PostForm("coupon_code")) {
	case cart.CouponAccepted:
		response.Redirect(c, "/cart", session.LevelSuccess, "Купонот е применет! Добивте 10% попуст.")
	case cart.CouponRejected:
		response.Redirect(c, "/cart", session.LevelError, "Невалиден купон.")
	default:
		response.Redirect(c, "/cart", "", "")
	}
}

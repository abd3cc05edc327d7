// Package order runs the two-step checkout and serves placed orders.
package order

import (
	"context"
	"fmt"
	"time"

	"go-boutique/apps/cart"
	cartmodel "go-boutique/apps/cart/model"
	"go-boutique/apps/delivery"
	deliverymodel "go-boutique/apps/delivery/model"
	"go-boutique/apps/order/model"
	"go-boutique/apps/payment"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/events"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/metrics"
	"go-boutique/pkg/session"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventPlaced = "order.placed"

	// stateKey is the session slot of the pending delivery info.
	stateKey = "checkout"
)

var (
	ErrCartEmpty      = errs.InvalidState("Вашата кошничка е празна.")
	ErrNoDeliveryInfo = errs.InvalidState("Ве молиме внесете информации за достава.")
	ErrInvalidInfo    = errs.InvalidInput("Ве молиме пополнете ги задолжителните полиња.")
)

// DeliveryInfo is the contact and address submitted in the first step.
type DeliveryInfo struct {
	FirstName        string `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName         string `json:"last_name" form:"last_name" validate:"required,max=100"`
	Phone            string `json:"phone" form:"phone" validate:"required,max=20"`
	Email            string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	StreetAddress    string `json:"street_address" form:"street_address" validate:"required,max=255"`
	City             string `json:"city" form:"city" validate:"required,max=100"`
	DeliveryOptionID uint   `json:"delivery_option_id" form:"delivery_option" validate:"required"`
}

// State is what survives between the delivery and payment steps.
type State struct {
	Info    DeliveryInfo `json:"info"`
	SavedAt time.Time    `json:"saved_at"`
}

type Placed struct {
	OrderID uint            `json:"order_id"`
	Number  string          `json:"number"`
	UserID  *uint           `json:"user_id,omitempty"`
	Total   decimal.Decimal `json:"total"`
}

// Checkout 结算流程：填写配送信息 -> 选择支付方式并下单
type Checkout struct {
	db         *gorm.DB
	carts      *cart.Service
	deliveries *delivery.Service
	bus        *events.Bus
	log        *zap.Logger
	validate   *validator.Validate
	stateTTL   time.Duration
	now        func() time.Time
}

func NewCheckout(db *gorm.DB, carts *cart.Service, deliveries *delivery.Service, bus *events.Bus, log *zap.Logger, stateTTL time.Duration) *Checkout {
	return &Checkout{
		db:         db,
		carts:      carts,
		deliveries: deliveries,
		bus:        bus,
		log:        log.Named("checkout"),
		validate:   validator.New(),
		stateTTL:   stateTTL,
		now:        time.Now,
	}
}

type DeliveryPage struct {
	Items   []cartmodel.CartItem   `json:"items"`
	Totals  cart.Totals            `json:"totals"`
	Options []deliverymodel.Option `json:"delivery_options"`
	Info    *DeliveryInfo          `json:"delivery_info,omitempty"`
}

type PaymentPage struct {
	Items        []cartmodel.CartItem  `json:"items"`
	Totals       cart.Totals           `json:"totals"`
	Info         DeliveryInfo          `json:"delivery_info"`
	Option       *deliverymodel.Option `json:"delivery_option"`
	DeliveryCost decimal.Decimal       `json:"delivery_cost"`
	Total        decimal.Decimal       `json:"total"`
	Methods      []payment.Option      `json:"payment_methods"`
}

// cartItems returns the owner's lines or ErrCartEmpty. It never creates a cart.
func (c *Checkout) cartItems(ctx context.Context, owner identity.Identity) (*cartmodel.Cart, []cartmodel.CartItem, error) {
	ct, err := c.carts.Find(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	if ct == nil {
		return nil, nil, ErrCartEmpty
	}
	items, err := c.carts.Items(ctx, ct)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, ErrCartEmpty
	}
	return ct, items, nil
}

// LoadState returns the pending delivery info, or nil when there is none.
func (c *Checkout) LoadState(ctx context.Context, sess *session.Session) (*State, error) {
	var st State
	ok, err := sess.Load(ctx, stateKey, &st)
	if err != nil {
		return nil, fmt.Errorf("loading checkout state: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &st, nil
}

// DeliveryStep 第一步：购物车不能为空
func (c *Checkout) DeliveryStep(ctx context.Context, sess *session.Session, owner identity.Identity) (*DeliveryPage, error) {
	_, items, err := c.cartItems(ctx, owner)
	if err != nil {
		return nil, err
	}
	options, err := c.deliveries.ActiveOptions(ctx)
	if err != nil {
		return nil, err
	}
	page := &DeliveryPage{Items: items, Totals: cart.ComputeTotals(items), Options: options}
	if st, err := c.LoadState(ctx, sess); err == nil && st != nil {
		page.Info = &st.Info
	}
	return page, nil
}

// SubmitDelivery stores the delivery info in the session. Nothing is written
// to the database.
func (c *Checkout) SubmitDelivery(ctx context.Context, sess *session.Session, owner identity.Identity, info DeliveryInfo) error {
	if _, _, err := c.cartItems(ctx, owner); err != nil {
		return err
	}
	if err := c.validate.Struct(info); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInfo, err)
	}
	st := State{Info: info, SavedAt: c.now().UTC()}
	if err := sess.Save(ctx, stateKey, st, c.stateTTL); err != nil {
		return fmt.Errorf("saving checkout state: %w", err)
	}
	return nil
}

// resolve checks the payment step preconditions in order: items, delivery
// info, then the chosen option.
func (c *Checkout) resolve(ctx context.Context, sess *session.Session, owner identity.Identity) (*cartmodel.Cart, []cartmodel.CartItem, *State, *deliverymodel.Option, error) {
	ct, items, err := c.cartItems(ctx, owner)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	st, err := c.LoadState(ctx, sess)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if st == nil {
		return nil, nil, nil, nil, ErrNoDeliveryInfo
	}
	opt, err := c.deliveries.Option(ctx, st.Info.DeliveryOptionID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return ct, items, st, opt, nil
}

// PaymentStep 第二步：展示汇总金额与支付方式
func (c *Checkout) PaymentStep(ctx context.Context, sess *session.Session, owner identity.Identity) (*PaymentPage, error) {
	_, items, st, opt, err := c.resolve(ctx, sess, owner)
	if err != nil {
		return nil, err
	}
	totals := cart.ComputeTotals(items)
	return &PaymentPage{
		Items:        items,
		Totals:       totals,
		Info:         st.Info,
		Option:       opt,
		DeliveryCost: opt.Price,
		Total:        totals.Subtotal.Add(opt.Price),
		Methods:      payment.Options(),
	}, nil
}

// PlaceOrder writes the order, its item snapshots and its delivery, then
// empties the cart, all in one transaction. The session state is dropped
// after commit.
func (c *Checkout) PlaceOrder(ctx context.Context, sess *session.Session, owner identity.Identity, rawMethod string) (o *model.Order, err error) {
	defer func() { metrics.RecordOperation("place_order", err == nil) }()

	ct, _, st, opt, err := c.resolve(ctx, sess, owner)
	if err != nil {
		return nil, err
	}
	method, err := payment.ParseMethod(rawMethod)
	if err != nil {
		return nil, err
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务内重新读取购物车，以提交时的内容为准
		items, err := cart.Items(tx, ct.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}
		totals := cart.ComputeTotals(items)

		o = &model.Order{
			UserID:        owner.UserIDPtr(),
			FirstName:     st.Info.FirstName,
			LastName:      st.Info.LastName,
			Phone:         st.Info.Phone,
			Email:         st.Info.Email,
			StreetAddress: st.Info.StreetAddress,
			City:          st.Info.City,
			PaymentMethod: string(method),
			Status:        model.StatusPending,
			Subtotal:      totals.Subtotal,
			DeliveryCost:  opt.Price,
			Discount:      totals.Discount,
			Total:         totals.Subtotal.Add(opt.Price),
			Items:         snapshot(items),
		}
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		d, err := c.deliveries.CreateTx(tx, o.ID, opt)
		if err != nil {
			return err
		}
		o.Delivery = d

		return cart.Clear(tx, ct.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := sess.Remove(ctx, stateKey); err != nil {
		c.log.Warn("failed to clear checkout state", zap.Uint("order_id", o.ID), zap.Error(err))
	}
	c.log.Info("order placed",
		zap.String("number", o.Number()),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("payment_method", o.PaymentMethod),
	)
	if c.bus != nil {
		c.bus.Publish(ctx, events.New(EventPlaced, Placed{
			OrderID: o.ID,
			Number:  o.Number(),
			UserID:  o.UserID,
			Total:   o.Total,
		}))
	}
	return o, nil
}

// snapshot copies each line's name and discounted price so the order no
// longer depends on the product row.
func snapshot(items []cartmodel.CartItem) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		pid := item.ProductID
		out = append(out, model.OrderItem{
			ProductID:    &pid,
			ProductName:  item.Product.Name,
			ProductPrice: item.UnitPrice(),
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal(),
		})
	}
	return out
}

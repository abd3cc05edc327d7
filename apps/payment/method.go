// Package payment lists the payment methods offered at checkout.
package payment

import (
	"strings"

	"go-boutique/pkg/errs"
)

// Method 支付方式。下单时不做实际扣款，只记录客户选择
type Method string

const (
	Card           Method = "card"
	BankTransfer   Method = "bank_transfer"
	CashOnDelivery Method = "cash_on_delivery"
)

var ErrUnknownMethod = errs.InvalidInput("Ве молиме изберете начин на плаќање.")

// Methods in display order.
var Methods = []Method{Card, BankTransfer, CashOnDelivery}

var labels = map[Method]string{
	Card:           "Картичка",
	BankTransfer:   "Банкарски трансфер",
	CashOnDelivery: "Плаќање при достава",
}

func (m Method) Valid() bool {
	_, ok := labels[m]
	return ok
}

func (m Method) Label() string {
	if l, ok := labels[m]; ok {
		return l
	}
	return string(m)
}

// ParseMethod accepts the form value of a payment method.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", ErrUnknownMethod
	}
	return m, nil
}

// Option is a selectable method for the payment page.
type Option struct {
	Value Method `json:"value"`
	Label string `json:"label"`
}

func Options() []Option {
	out := make([]Option, 0, len(Methods))
	for _, m := range Methods {
		out = append(out, Option{Value: m, Label: m.Label()})
	}
	return out
}

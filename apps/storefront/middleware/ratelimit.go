package middleware

import (
	"fmt"
	"net/http"

	"go-boutique/pkg/config"
	"go-boutique/pkg/response"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
)

// 限流资源名称
const (
	ResCartAdd    = "cart_add"
	ResPlaceOrder = "place_order"
)

// InitSentinel loads the flow rules. A zero threshold leaves the resource
// unlimited.
func InitSentinel(cfg config.RateLimitConfig) error {
	if err := sentinel.InitDefault(); err != nil {
		return fmt.Errorf("init sentinel: %w", err)
	}

	var rules []*flow.Rule
	for res, qps := range map[string]float64{ResCartAdd: cfg.CartAddQPS, ResPlaceOrder: cfg.PlaceOrderQPS} {
		if qps <= 0 {
			continue
		}
		rules = append(rules, &flow.Rule{
			Resource:               res,
			TokenCalculateStrategy: flow.Direct, // 直接计数
			ControlBehavior:        flow.Reject, // 直接拒绝
			Threshold:              qps,
			StatIntervalInMs:       1000,
		})
	}
	if _, err := flow.LoadRules(rules); err != nil {
		return fmt.Errorf("load sentinel rules: %w", err)
	}
	return nil
}

// RateLimit guards a route with a sentinel resource.
func RateLimit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, b := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if b != nil {
			response.Error(c, http.StatusTooManyRequests, "Системот е зафатен, обидете се повторно.")
			c.Abort()
			return
		}
		defer e.Exit()
		c.Next()
	}
}

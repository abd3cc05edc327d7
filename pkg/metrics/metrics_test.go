package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/products/:id", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/5", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/6", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/products/:id", "200"))
	assert.Equal(t, before+2, after)
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(shopOperations.WithLabelValues("place_order", "error"))
	RecordOperation("place_order", false)
	assert.Equal(t, before+1, testutil.ToFloat64(shopOperations.WithLabelValues("place_order", "error")))
}

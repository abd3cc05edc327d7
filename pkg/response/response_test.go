package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-boutique/pkg/config"
	"go-boutique/pkg/errs"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRedirectThenSuccess_CarriesFlash(t *testing.T) {
	r := gin.New()
	r.Use(session.Middleware(session.NewMemoryStore(), config.SessionConfig{CookieName: "sid", TTL: time.Hour}))
	r.POST("/go", func(c *gin.Context) { Redirect(c, "/cart", session.LevelWarning, "Your cart is empty.") })
	r.GET("/cart", func(c *gin.Context) { Success(c, gin.H{"ok": true}) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/go", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "Your cart is empty.", body.Messages[0].Message)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("x: %w", errs.NotFound("missing"))))
	assert.Equal(t, http.StatusForbidden, StatusOf(errs.ErrForbidden))
	assert.Equal(t, http.StatusConflict, StatusOf(errs.ErrInvalidState))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestFail_HidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { Fail(c, errors.New("dial tcp: refused")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

package response

import (
	"errors"
	"net/http"

	"go-boutique/pkg/errs"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code     int             `json:"code"`               // 业务码
	Msg      string          `json:"msg"`                // 提示信息
	Data     interface{}     `json:"data,omitempty"`     // 数据
	Messages []session.Flash `json:"messages,omitempty"` // 一次性提示
}

// Success 成功响应 (Code=200)，并带出 session 中待显示的提示
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:     200,
		Msg:      "success",
		Data:     data,
		Messages: popFlashes(ctx),
	})
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code:     httpStatus,
		Msg:      msg,
		Messages: popFlashes(ctx),
	})
}

// Redirect stores a flash message and answers 303 See Other. An empty msg
// redirects silently.
func Redirect(ctx *gin.Context, location, level, msg string) {
	if s := session.From(ctx); s != nil && msg != "" {
		if err := s.AddFlash(ctx.Request.Context(), level, msg); err != nil {
			_ = ctx.Error(err)
		}
	}
	ctx.Redirect(http.StatusSeeOther, location)
}

// Fail maps a domain error to its HTTP status. Unknown errors become 500 with
// a generic message.
func Fail(ctx *gin.Context, err error) {
	var de *errs.DomainError
	if !errors.As(err, &de) {
		_ = ctx.Error(err)
		Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}
	Error(ctx, StatusOf(err), de.Message)
}

func StatusOf(err error) int {
	switch errs.CodeOf(err) {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInvalidInput:
		return http.StatusBadRequest
	case errs.CodeInvalidState, errs.CodeConflict:
		return http.StatusConflict
	case errs.CodeForbidden:
		return http.StatusForbidden
	case errs.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func popFlashes(ctx *gin.Context) []session.Flash {
	s := session.From(ctx)
	if s == nil {
		return nil
	}
	flashes, err := s.Flashes(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		return nil
	}
	return flashes
}

package middleware

import (
	"net/url"
	"strings"

	"go-boutique/pkg/identity"
	"go-boutique/pkg/jwt"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

// TokenCookie carries the login JWT for browser clients.
const TokenCookie = "token"

// Identity resolves the visitor. A valid token from the cookie or the
// "Authorization: Bearer" header makes the visitor a user; otherwise the
// session key is the owner. It never rejects a request.
func Identity(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if s := session.From(c); s != nil {
			key = s.Key
		}
		id := identity.Anonymous(key)

		if raw := bearer(c); raw != "" {
			if claims, err := tokens.ParseToken(raw); err == nil {
				id.UserID = claims.UserID
				id.Username = claims.Username
				id.Role = claims.Role
			}
		}

		identity.Set(c, id)
		c.Next()
	}
}

func bearer(c *gin.Context) string {
	// 格式通常是 "Bearer <token>"
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if v, err := c.Cookie(TokenCookie); err == nil {
		return v
	}
	return ""
}

// RequireLogin sends anonymous visitors to the login page.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity.From(c).Authenticated() {
			next := url.QueryEscape(c.Request.URL.RequestURI())
			response.Redirect(c, "/accounts/login?next="+next, session.LevelWarning, "Ве молиме најавете се.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff 仅限后台人员
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity.From(c).Staff() {
			response.Redirect(c, "/", session.LevelError, "Немате пристап до оваа страница.")
			c.Abort()
			return
		}
		c.Next()
	}
}

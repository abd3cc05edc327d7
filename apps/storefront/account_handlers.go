package main

import (
	"fmt"
	"net/http"
	"strings"

	"go-boutique/apps/storefront/middleware"
	"go-boutique/apps/user"
	"go-boutique/pkg/identity"
	"go-boutique/pkg/response"
	"go-boutique/pkg/session"

	"github.com/gin-gonic/gin"
)

func (a *App) setToken(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", a.cfg.Session.Secure, true)
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/"
}

func (a *App) registerForm(c *gin.Context) {
	if identity.From(c).Authenticated() {
		response.Redirect(c, "/", "", "")
		return
	}
	response.Success(c, gin.H{"fields": []string{"username", "email", "password1", "password2"}})
}

func (a *App) register(c *gin.Context) {
	if identity.From(c).Authenticated() {
		response.Redirect(c, "/", "", "")
		return
	}
	var in user.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		response.Redirect(c, "/accounts/register", session.LevelError, user.ErrInvalidInput.Message)
		return
	}
	ctx := c.Request.Context()
	if _, err := a.users.Register(ctx, in); err != nil {
		a.fail(c, err, "/accounts/register")
		return
	}
	_, token, err := a.users.Login(ctx, in.Username, in.Password)
	if err != nil {
		a.fail(c, err, "/accounts/login")
		return
	}
	a.setToken(c, token, int(a.tokens.Expiration().Seconds()))
	response.Redirect(c, "/", session.LevelSuccess, "Успешно се регистриравте!")
}

func (a *App) loginForm(c *gin.Context) {
	if identity.From(c).Authenticated() {
		response.Redirect(c, "/", "", "")
		return
	}
	response.Success(c, gin.H{"next": safeNext(c.Query("next"))})
}

func (a *App) login(c *gin.Context) {
	if identity.From(c).Authenticated() {
		response.Redirect(c, "/", "", "")
		return
	}
	u, token, err := a.users.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		a.fail(c, err, "/accounts/login")
		return
	}
	a.setToken(c, token, int(a.tokens.Expiration().Seconds()))
	response.Redirect(c, safeNext(c.Query("next")), session.LevelSuccess, fmt.Sprintf("Добредојдовте, %s!", u.Username))
}

func (a *App) logout(c *gin.Context) {
	a.setToken(c, "", -1)
	response.Redirect(c, "/", session.LevelSuccess, "Успешно се одјавивте.")
}

func (a *App) profile(c *gin.Context) {
	ctx := c.Request.Context()
	id := identity.From(c)
	u, err := a.users.Get(ctx, id.UserID)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	p, err := a.users.Profile(ctx, id.UserID)
	if err != nil {
		a.fail(c, err, "/")
		return
	}
	response.Success(c, gin.H{"user": u, "profile": p})
}

func (a *App) profileUpdate(c *gin.Context) {
	var in user.ProfileInput
	if err := c.ShouldBind(&in); err != nil {
		response.Redirect(c, "/accounts/profile", session.LevelError, user.ErrInvalidInput.Message)
		return
	}
	in.NewsletterSubscribed = c.PostForm("newsletter_subscribed") != ""
	if _, err := a.users.UpdateProfile(c.Request.Context(), identity.From(c).UserID, in); err != nil {
		a.fail(c, err, "/accounts/profile")
		return
	}
	response.Redirect(c, "/accounts/profile", session.LevelSuccess, "Профилот е ажуриран.")
}

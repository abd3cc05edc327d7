package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-boutique/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ginKey   = "session"
	flashKey = "_flash"

	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Flash is a one-shot user-facing message shown on the next response.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session is a visitor's server-side namespace, addressed by the cookie key.
type Session struct {
	Key   string
	store Store
	ttl   time.Duration
}

func New(store Store, key string, ttl time.Duration) *Session {
	return &Session{Key: key, store: store, ttl: ttl}
}

func (s *Session) storeKey(name string) string {
	return s.Key + ":" + name
}

// Load decodes the value stored under name into v. It reports false when
// nothing is stored or the value expired.
func (s *Session) Load(ctx context.Context, name string, v any) (bool, error) {
	raw, err := s.store.Get(ctx, s.storeKey(name))
	if errors.Is(err, ErrMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding session value %s: %w", name, err)
	}
	return true, nil
}

// Save stores v under name. A zero ttl uses the session lifetime.
func (s *Session) Save(ctx context.Context, name string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding session value %s: %w", name, err)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.store.Set(ctx, s.storeKey(name), raw, ttl)
}

func (s *Session) Remove(ctx context.Context, name string) error {
	return s.store.Delete(ctx, s.storeKey(name))
}

func (s *Session) AddFlash(ctx context.Context, level, message string) error {
	var flashes []Flash
	if _, err := s.Load(ctx, flashKey, &flashes); err != nil {
		return err
	}
	flashes = append(flashes, Flash{Level: level, Message: message})
	return s.Save(ctx, flashKey, flashes, 0)
}

// Flashes returns and clears the pending messages.
func (s *Session) Flashes(ctx context.Context) ([]Flash, error) {
	var flashes []Flash
	ok, err := s.Load(ctx, flashKey, &flashes)
	if err != nil || !ok {
		return nil, err
	}
	return flashes, s.Remove(ctx, flashKey)
}

// Middleware makes sure every visitor carries a session cookie and exposes
// the Session through From.
func Middleware(store Store, cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(key) != nil {
			key = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, key, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		}
		c.Set(ginKey, New(store, key, cfg.TTL))
		c.Next()
	}
}

// From returns the request session, or nil outside Middleware.
func From(c *gin.Context) *Session {
	if v, ok := c.Get(ginKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

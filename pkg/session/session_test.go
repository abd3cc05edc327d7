package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-boutique/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type payload struct {
	Name string `json:"name"`
	ID   uint   `json:"id"`
}

func TestSession_SaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), "visitor", time.Hour)

	var got payload
	ok, err := s.Load(ctx, "state", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "state", payload{Name: "ana", ID: 3}, 0))
	ok, err = s.Load(ctx, "state", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "ana", ID: 3}, got)

	require.NoError(t, s.Remove(ctx, "state"))
	ok, err = s.Load(ctx, "state", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMissing)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("b"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("c"), 0))

	assert.Equal(t, 0, store.Sweep())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Len(t, store.entries, 2)
	assert.NotContains(t, store.entries, "short")

	v, err := store.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)
}

func TestMemoryStore_JanitorStopsWithContext(t *testing.T) {
	store := NewMemoryStore()
	store.now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Minute))
	store.now = func() time.Time { return time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Janitor(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.entries) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestFlashes_PoppedOnce(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), "visitor", time.Hour)

	require.NoError(t, s.AddFlash(ctx, LevelWarning, "Your cart is empty."))
	require.NoError(t, s.AddFlash(ctx, LevelSuccess, "Saved."))

	flashes, err := s.Flashes(ctx)
	require.NoError(t, err)
	require.Len(t, flashes, 2)
	assert.Equal(t, Flash{Level: LevelWarning, Message: "Your cart is empty."}, flashes[0])

	flashes, err = s.Flashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestMiddleware_IssuesAndReusesCookie(t *testing.T) {
	cfg := config.SessionConfig{CookieName: "sessionid", TTL: time.Hour}
	r := gin.New()
	r.Use(Middleware(NewMemoryStore(), cfg))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, From(c).Key) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	key := cookies[0].Value
	assert.Equal(t, key, rec.Body.String())
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: key})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, key, rec.Body.String())
}

func TestMiddleware_ReplacesForgedCookie(t *testing.T) {
	cfg := config.SessionConfig{CookieName: "sessionid", TTL: time.Hour}
	r := gin.New()
	r.Use(Middleware(NewMemoryStore(), cfg))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, From(c).Key) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Body.String())
	assert.Len(t, rec.Result().Cookies(), 1)
}

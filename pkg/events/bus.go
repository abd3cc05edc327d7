// Package events is the in-process domain event bus. Handlers run
// synchronously in the publisher's goroutine, after the publisher's
// transaction has committed.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event.
const Wildcard = "*"

type Event struct {
	Name       string
	OccurredAt time.Time
	Payload    any
}

func New(name string, payload any) Event {
	return Event{Name: name, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Handler func(ctx context.Context, ev Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{handlers: make(map[string][]Handler), log: log.Named("events")}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
	b.log.Debug("handler subscribed", zap.String("event", name))
}

// Publish delivers ev to its handlers and then to wildcard handlers. A failing
// or panicking handler is logged and does not stop the others.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[ev.Name])+len(b.handlers[Wildcard]))
	handlers = append(handlers, b.handlers[ev.Name]...)
	handlers = append(handlers, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.dispatch(ctx, h, ev); err != nil {
			b.log.Error("handler failed to process event",
				zap.String("event", ev.Name),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, ev)
}

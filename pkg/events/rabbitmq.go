package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitPublisher forwards bus events to a topic exchange, routed by event name.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
	mu       sync.Mutex
}

func NewRabbitPublisher(url, exchange string, log *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, log: log.Named("rabbitmq")}, nil
}

type envelope struct {
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func buildPublishing(ev Event) (amqp.Publishing, error) {
	body, err := json.Marshal(envelope{Name: ev.Name, OccurredAt: ev.OccurredAt, Payload: ev.Payload})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encoding event %s: %w", ev.Name, err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		ContentType:  "application/json",
		Type:         ev.Name,
		Body:         body,
	}, nil
}

// Handle is a bus Handler; subscribe it with Wildcard.
func (p *RabbitPublisher) Handle(ctx context.Context, ev Event) error {
	msg, err := buildPublishing(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx,
		p.exchange,
		ev.Name,
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Name, err)
	}
	p.log.Debug("event forwarded", zap.String("event", ev.Name))
	return nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Package queue publishes domain events to RabbitMQ, one durable queue per
// event type, for consumers that need persistent delivery.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/indigoair/indigo/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn   *amqp.Connection
	prefix string

	mu       sync.Mutex
	ch       channel
	declared map[string]bool
}

func Dial(url, prefix string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	p := newPublisher(ch, prefix)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, prefix string) *Publisher {
	return &Publisher{ch: ch, prefix: prefix, declared: make(map[string]bool)}
}

// QueueName is the queue events of type t are routed to.
func (p *Publisher) QueueName(t events.Type) string {
	return p.prefix + "." + string(t)
}

func (p *Publisher) Publish(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}
	name := p.QueueName(e.Type)

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[name] {
		if _, err := p.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq: declare %s: %w", name, err)
		}
		p.declared[name] = true
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Type:         string(e.Type),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", name, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", name, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ events.Publisher = (*Publisher)(nil)

// Package rabbitmq publishes outbox events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iho/payflow/internal/domain"
)

const (
	exchangeKind = "topic"
	contentType  = "application/json"
	dialTimeout  = 10 * time.Second
)

// channel is the subset of *amqp091.Channel the producer uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// EventProducer publishes outbox events to a durable topic exchange. The
// routing key is the event type.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  channel
	reopen   func() (channel, error)
	exchange string
	declared bool
	logger   zerolog.Logger
	now      func() time.Time
}

// ErrInvalidAMQPURL is returned for URLs without an amqp or amqps scheme.
var ErrInvalidAMQPURL = errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// Drop stray characters before the scheme.
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", ErrInvalidAMQPURL
	}
	return clean, nil
}

// NewEventProducer dials RabbitMQ and opens a channel.
func NewEventProducer(amqpURL, exchange string, logger zerolog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p := newEventProducer(ch, exchange, logger)
	p.conn = conn
	p.reopen = func() (channel, error) {
		return conn.Channel()
	}
	return p, nil
}

func newEventProducer(ch channel, exchange string, logger zerolog.Logger) *EventProducer {
	return &EventProducer{
		channel:  ch,
		exchange: exchange,
		logger:   logger.With().Str("component", "rabbitmq_producer").Logger(),
		now:      time.Now,
	}
}

// Publish sends one outbox event. A failed publish reopens the channel and
// retries once.
func (p *EventProducer) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := p.message(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, event.EventType, msg)
	if err == nil {
		return nil
	}
	if p.reopen == nil {
		return err
	}

	p.logger.Warn().
		Err(err).
		Str("exchange", p.exchange).
		Str("routing_key", event.EventType).
		Msg("publish failed; reopening channel")

	ch, chErr := p.reopen()
	if chErr != nil {
		return errors.Join(err, chErr)
	}
	p.channel = ch
	p.declared = false

	return p.publish(ctx, event.EventType, msg)
}

func (p *EventProducer) publish(ctx context.Context, routingKey string, msg amqp091.Publishing) error {
	if !p.declared {
		if err := p.channel.ExchangeDeclare(p.exchange, exchangeKind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
		}
		p.declared = true
	}

	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

func (p *EventProducer) message(event *domain.OutboxEvent) (amqp091.Publishing, error) {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal payload: %w", err)
	}

	headers := amqp091.Table{
		"x-event-id":       event.ID,
		"x-aggregate-type": event.AggregateType,
		"x-aggregate-id":   event.AggregateID,
	}
	if status, ok := event.Payload["status"].(string); ok {
		headers["x-status"] = status
	}

	return amqp091.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Type:         event.EventType,
		Headers:      headers,
		Body:         body,
	}, nil
}

// Close closes the channel and the connection.
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

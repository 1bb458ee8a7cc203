package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"ghostlounge_backend/pkg/utils"
)

const (
	maxDialTimeout = 5 * time.Second
	redialBackoff  = 2 * time.Second
	heartbeat      = 10 * time.Second
)

// AMQPPublisher sends events to a durable topic exchange with routing key
// "reservation.<action>". A broken connection is redialed on the next publish,
// at most once per redialBackoff; publishes in between fail fast.
type AMQPPublisher struct {
	url      string
	exchange string
	now      func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	closed   bool
	dialErr  error
	nextDial time.Time
}

// NewAMQPPublisher dials the broker and declares the exchange. The dial is
// bounded by ctx's deadline, and never exceeds maxDialTimeout.
func NewAMQPPublisher(ctx context.Context, url, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange, now: time.Now}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// dialTimeout is the time left on ctx, capped at maxDialTimeout.
func dialTimeout(ctx context.Context, now time.Time) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return maxDialTimeout, nil
	}
	left := deadline.Sub(now)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	if left > maxDialTimeout {
		return maxDialTimeout, nil
	}
	return left, nil
}

func (p *AMQPPublisher) connectLocked(ctx context.Context) error {
	now := p.now()
	if p.dialErr != nil && now.Before(p.nextDial) {
		return p.dialErr
	}
	timeout, err := dialTimeout(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	if err := p.dialLocked(timeout); err != nil {
		p.dialErr = err
		p.nextDial = now.Add(redialBackoff)
		return err
	}
	p.dialErr = nil
	return nil
}

func (p *AMQPPublisher) dialLocked(timeout time.Duration) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = ch
	utils.LogInfo("connected to RabbitMQ", map[string]interface{}{"exchange": p.exchange})
	return nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// RoutingKey returns the routing key used for an event.
func RoutingKey(e Event) string {
	return "reservation." + e.Action
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal calendar event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("calendar publisher is closed")
	}
	if p.channel == nil || p.conn == nil || p.conn.IsClosed() {
		p.resetLocked()
		if err := p.connectLocked(ctx); err != nil {
			return err
		}
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.OccurredAt,
			Type:         RoutingKey(event),
			Body:         body,
		},
	)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("failed to publish calendar event: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.resetLocked()
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	amqpDialTimeout    = 5 * time.Second
	amqpRedialInterval = 5 * time.Second
)

// ErrPublisherUnavailable is returned while the broker is down and the next
// reconnect attempt is not yet due.
var ErrPublisherUnavailable = errors.New("amqp publisher unavailable")

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (amqpChannel, io.Closer, error)

// AMQPPublisher forwards ledger events to a RabbitMQ topic exchange, routed by event type.
// A closed channel or connection is re-dialed on the next publish, at most once
// per redial interval.
type AMQPPublisher struct {
	mu             sync.Mutex
	url            string
	exchange       string
	dial           dialFunc
	now            func() time.Time
	redialInterval time.Duration
	lastDial       time.Time

	conn    io.Closer
	channel amqpChannel
	logger  *zap.Logger
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(url, exchange, logger, dialAMQP, time.Now)
}

func newAMQPPublisher(url, exchange string, logger *zap.Logger, dial dialFunc, now func() time.Time) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AMQPPublisher{
		url:            url,
		exchange:       exchange,
		dial:           dial,
		now:            now,
		redialInterval: amqpRedialInterval,
		logger:         logger,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	logger.Info("amqp publisher ready", zap.String("exchange", exchange))
	return p, nil
}

func dialAMQP(url string) (amqpChannel, io.Closer, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(amqpDialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, conn, nil
}

// connect requires mu to be held, or the publisher to be unshared.
func (p *AMQPPublisher) connect() error {
	p.lastDial = p.now()
	ch, conn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.channel, p.conn = ch, conn
	return nil
}

// disconnect requires mu to be held.
func (p *AMQPPublisher) disconnect() error {
	var err error
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		err = p.conn.Close()
	}
	p.channel, p.conn = nil, nil
	return err
}

// Handle is an EventHandler that publishes event to the exchange.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.channel.IsClosed() {
		if err := p.reconnect(); err != nil {
			return err
		}
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg); err != nil {
		p.logger.Warn("amqp publish failed", zap.String("event_id", event.ID), zap.Error(err))
		_ = p.disconnect()
		return err
	}
	return nil
}

// reconnect requires mu to be held.
func (p *AMQPPublisher) reconnect() error {
	_ = p.disconnect()
	if p.now().Sub(p.lastDial) < p.redialInterval {
		return ErrPublisherUnavailable
	}
	if err := p.connect(); err != nil {
		p.logger.Warn("amqp reconnect failed", zap.Error(err))
		return err
	}
	p.logger.Info("amqp publisher reconnected", zap.String("exchange", p.exchange))
	return nil
}

// Subscribe registers the publisher for every ledger event type.
func (p *AMQPPublisher) Subscribe(dispatcher Dispatcher) {
	for _, t := range AllEventTypes {
		dispatcher.Subscribe(t, p.Handle)
	}
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnect()
}

func buildPublishing(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		Body:         body,
	}, nil
}

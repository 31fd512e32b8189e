package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Nathansuares/SkySafe/models"

	"github.com/apex/log"
	"github.com/streadway/amqp"
)

// Publisher delivers committed issue changes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.IssueEvent) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.IssueEvent) error { return nil }
func (Nop) Close() error                                     { return nil }

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpConnection is the part of *amqp.Connection the publisher uses.
type amqpConnection interface {
	IsClosed() bool
	Close() error
}

type dialFunc func(amqpURL, exchange string) (amqpConnection, amqpChannel, error)

// AMQPPublisher sends events to a topic exchange, routed by "issue.<type>".
// A connection or channel closed by the broker is reopened on the next publish.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	dial     dialFunc
	conn     amqpConnection
	channel  amqpChannel
}

// NewAMQPPublisher connects to RabbitMQ and declares a durable topic exchange.
func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: amqpURL, exchange: exchange, dial: dialAMQP}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialAMQP(amqpURL, exchange string) (amqpConnection, amqpChannel, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return conn, channel, nil
}

func (p *AMQPPublisher) connectLocked() error {
	conn, channel, err := p.dial(p.url, p.exchange)
	if err != nil {
		return err
	}
	p.conn, p.channel = conn, channel
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func isClosedErr(err error) bool {
	if errors.Is(err, amqp.ErrClosed) {
		return true
	}
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqp.ChannelError {
		return true
	}
	return strings.Contains(err.Error(), "channel/connection is not open")
}

// Publish sends event as a persistent JSON message, reconnecting once if the
// broker closed the channel.
func (p *AMQPPublisher) Publish(ctx context.Context, event models.IssueEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || (p.conn != nil && p.conn.IsClosed()) {
		p.closeLocked()
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("failed to publish %s: %w", event.RoutingKey(), err)
		}
	}

	err = p.channel.Publish(p.exchange, event.RoutingKey(), false, false, msg)
	if err != nil && isClosedErr(err) {
		log.WithError(err).Warn("RabbitMQ channel closed, reconnecting")
		p.closeLocked()
		if connErr := p.connectLocked(); connErr != nil {
			return fmt.Errorf("failed to publish %s: %w (reconnect failed: %v)", event.RoutingKey(), err, connErr)
		}
		err = p.channel.Publish(p.exchange, event.RoutingKey(), false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.RoutingKey(), err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

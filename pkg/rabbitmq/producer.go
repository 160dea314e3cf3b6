/**
 * @description
 * This package provides the producer that delivers settlement notification
 * events to the chat gateway through RabbitMQ. The confirmation workflow
 * treats delivery as best-effort: publish failures are logged by the caller
 * and never roll back a settlement.
 *
 * @dependencies
 * - context, encoding/json, time: Standard Go libraries.
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// SettlementEventKind doubles as the routing key on the topic exchange. The
// gateway binds one queue per kind it wants to relay into chat.
type SettlementEventKind string

const (
	EventSettlementConfirmed SettlementEventKind = "settlement.confirmed"
	EventSettlementCancelled SettlementEventKind = "settlement.cancelled"
	EventSettlementExpired   SettlementEventKind = "settlement.expired"

	// Post-confirmation notice sequence, emitted in this order after the
	// confirmation record.
	EventThankYouNotice    SettlementEventKind = "notice.thank_you"
	EventVouchCopyReminder SettlementEventKind = "notice.vouch_copy"
	EventInviteReference   SettlementEventKind = "notice.invite"
	EventFeedbackRequest   SettlementEventKind = "notice.feedback"
)

// SettlementEvent is the payload published for every settlement lifecycle
// transition and notice. Amount is a decimal string to keep external currency
// units exact on the wire.
type SettlementEvent struct {
	Kind         SettlementEventKind `json:"kind"`
	SessionID    uuid.UUID           `json:"session_id"`
	SubjectUser  string              `json:"subject_user"`
	Operator     string              `json:"operator"`
	Amount       string              `json:"amount"`
	ExchangeType string              `json:"exchange_type"`
	Message      string              `json:"message"`
	Timestamp    time.Time           `json:"timestamp"`
}

// EventProducer holds the RabbitMQ connection and channel for publishing.
type EventProducer struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// Publisher is the interface implemented by types that can deliver settlement
// events to the gateway.
type Publisher interface {
	PublishSettlementEvent(ctx context.Context, event SettlementEvent) error
	Close()
}

// EventProducerFallback is a minimal no-op publisher used when RabbitMQ is
// unavailable at startup. Settlements still succeed; notices are dropped.
type EventProducerFallback struct{}

func (p *EventProducerFallback) PublishSettlementEvent(ctx context.Context, event SettlementEvent) error {
	log.Printf("level=warn component=rabbitmq_producer mode=fallback msg=\"settlement event publish skipped\" kind=%s session_id=%s", event.Kind, event.SessionID)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates a producer bound to the given topic exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange}, nil
}

// PublishSettlementEvent sends one event to the configured exchange with the
// event kind as routing key.
func (p *EventProducer) PublishSettlementEvent(ctx context.Context, event SettlementEvent) error {
	return p.publish(ctx, string(event.Kind), event)
}

func (p *EventProducer) publish(ctx context.Context, routingKey string, body interface{}) error {
	// Ensure the exchange exists (durable topic)
	if err := p.channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"exchange declare failed; reopening channel\" exchange=%s err=%v", p.exchange, err)
		// Attempt simple channel reopen once
		if p.conn == nil {
			return err
		}
		ch, chErr := p.conn.Channel()
		if chErr != nil {
			return chErr
		}
		p.channel = ch
		if err2 := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err2 != nil {
			return err2
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=rabbitmq_producer msg=\"json marshal failed\" exchange=%s routing_key=%s err=%v", p.exchange, routingKey, err)
		return err
	}

	publishing := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        jsonBody,
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, publishing)
	if err != nil {
		log.Printf("level=warn component=rabbitmq_producer msg=\"publish failed; reopening channel\" exchange=%s routing_key=%s err=%v", p.exchange, routingKey, err)
		// One-shot retry: reopen channel and try again
		if p.conn != nil {
			if ch, chErr := p.conn.Channel(); chErr == nil {
				p.channel = ch
				if exErr := p.channel.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); exErr == nil {
					if err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, publishing); err == nil {
						return nil
					}
				}
			}
		}
		return err
	}
	return nil
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

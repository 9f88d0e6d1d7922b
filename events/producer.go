// Package events publishes onboarding lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"customer-onboarding/shared"
)

const (
	DefaultExchange     = "customer_events"
	RoutingKeyOnboarded = "customer.onboarded"
)

// OnboardedEvent is published once per successful run.
type OnboardedEvent struct {
	RunID              string    `json:"runId"`
	CustomerID         string    `json:"customerId"`
	CustomerEmail      string    `json:"customerEmail"`
	RoleID             string    `json:"roleId,omitempty"`
	RegistrationLinked bool      `json:"registrationLinked"`
	DocumentIDs        []string  `json:"documentIds"`
	OccurredAt         time.Time `json:"occurredAt"`
}

func newOnboardedEvent(result shared.OnboardingResult, at time.Time) OnboardedEvent {
	ids := make([]string, 0, len(result.UploadedDocuments))
	for _, d := range result.UploadedDocuments {
		ids = append(ids, d.DocumentID)
	}
	return OnboardedEvent{
		RunID:              result.RunID,
		CustomerID:         result.CustomerID,
		CustomerEmail:      result.CustomerEmail,
		RoleID:             result.RoleID,
		RegistrationLinked: result.RegistrationLinked,
		DocumentIDs:        ids,
		OccurredAt:         at.UTC(),
	}
}

// Producer publishes to a topic exchange. An amqp channel is not safe for
// concurrent publishes, so publishes are serialized.
type Producer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
}

// NewProducer connects to RabbitMQ and declares the exchange.
func NewProducer(amqpURL, exchange string) (*Producer, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Producer{conn: conn, channel: channel, exchange: exchange}, nil
}

// PublishOnboarded announces a completed onboarding run.
func (p *Producer) PublishOnboarded(ctx context.Context, result shared.OnboardingResult) error {
	payload, err := json.Marshal(newOnboardedEvent(result, time.Now()))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, p.exchange, RoutingKeyOnboarded, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    result.RunID,
		Timestamp:    time.Now(),
		Body:         payload,
	})
}

// Close releases channel and connection resources.
func (p *Producer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

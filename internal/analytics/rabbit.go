package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange    = "storefront.events"
	EventRoutingKey   = "analytics.event.v1"
	ProfileRoutingKey = "analytics.profile.v1"

	producerName   = "bookarchive-storefront"
	envelopeSchema = 1
)

// Envelope wraps every message published to the events exchange.
type Envelope struct {
	EventName    string         `json:"eventName"`
	EventVersion int            `json:"eventVersion"`
	EventID      string         `json:"eventId"`
	Producer     string         `json:"producer"`
	AccountID    string         `json:"accountId,omitempty"`
	Region       string         `json:"region,omitempty"`
	OccurredAt   time.Time      `json:"occurredAt"`
	Payload      map[string]any `json:"payload"`
}

func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	return conn
}

// RabbitSink publishes analytics envelopes to a durable topic exchange.
type RabbitSink struct {
	ch        *amqp.Channel
	accountID string
	region    string
}

func NewRabbitSink(conn *amqp.Connection, accountID, region string) (*RabbitSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the exchange so publish never fails due to missing infra
	err = ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}

	return &RabbitSink{ch: ch, accountID: accountID, region: region}, nil
}

func (s *RabbitSink) Close() error {
	return s.ch.Close()
}

func (s *RabbitSink) RecordEvent(ctx context.Context, name string, payload map[string]any) error {
	body, err := json.Marshal(s.envelope(name, payload))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.publishJSON(ctx, EventRoutingKey, body)
}

func (s *RabbitSink) Identify(ctx context.Context, profile Profile) error {
	// CleverTap-shaped profile push: platform keys, merged downstream by
	// Identity/Email.
	payload := map[string]any{
		"Name":              profile.Name,
		"Email":             profile.Email,
		"Identity":          profile.Identity,
		"Phone":             profile.Phone,
		"Country Code":      profile.CountryCode,
		"Customer Type":     "Platinum",
		"Registration Date": time.Now().UTC(),
	}

	body, err := json.Marshal(s.envelope("Profile Push", payload))
	if err != nil {
		return fmt.Errorf("marshal profile push: %w", err)
	}
	return s.publishJSON(ctx, ProfileRoutingKey, body)
}

func (s *RabbitSink) envelope(name string, payload map[string]any) Envelope {
	return Envelope{
		EventName:    name,
		EventVersion: envelopeSchema,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		AccountID:    s.accountID,
		Region:       s.region,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}
}

func (s *RabbitSink) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// LeadCreatedEvent is published once per persisted lead.
type LeadCreatedEvent struct {
	EventID      string    `json:"event_id"`
	LeadID       int64     `json:"lead_id"`
	Source       string    `json:"source"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Message      string    `json:"message,omitempty"`
	CampaignName string    `json:"campaign_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewLeadCreatedEvent(lead *entity.Lead) LeadCreatedEvent {
	return LeadCreatedEvent{
		EventID:      uuid.New().String(),
		LeadID:       lead.ID,
		Source:       string(lead.Source),
		Name:         deref(lead.Name),
		Email:        deref(lead.Email),
		Phone:        deref(lead.Phone),
		Message:      deref(lead.Message),
		CampaignName: deref(lead.CampaignName),
		CreatedAt:    lead.CreatedAt,
	}
}

type LeadEventPublisher interface {
	PublishLeadCreated(ctx context.Context, event LeadCreatedEvent) error
}

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch channelPublisher
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadCreated(ctx context.Context, event LeadCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "queue: marshal lead event")
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.CreatedAt,
			Type:         "lead.created",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	return eris.Wrapf(err, "queue: publish lead %d", event.LeadID)
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLeadCreated(context.Context, LeadCreatedEvent) error { return nil }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

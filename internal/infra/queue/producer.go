package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StageChangedEvent é publicado depois que a automação confirma a troca de etapa.
type StageChangedEvent struct {
	EventID     string    `json:"event_id"`
	ClinicID    string    `json:"clinic_id"`
	LeadID      int64     `json:"lead_id"`
	FromStageID *int64    `json:"from_stage_id,omitempty"`
	ToStageID   int64     `json:"to_stage_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type QueueProducerInterface interface {
	PublishStageChanged(ctx context.Context, event StageChangedEvent) error
}

// amqpPublisher is the slice of *amqp.Channel the producer needs.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch amqpPublisher
}

func NewProducer(ch amqpPublisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishStageChanged(ctx context.Context, event StageChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erro ao converter evento: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StageEventHandler processa o evento (mensagens imediatas e agendamento das atrasadas).
type StageEventHandler interface {
	HandleStageChanged(ctx context.Context, event StageChangedEvent) error
}

type amqpConsumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel amqpConsumer
	Handler StageEventHandler
	log     *zap.Logger
}

func NewWorker(ch amqpConsumer, handler StageEventHandler) *Worker {
	return &Worker{
		Channel: ch,
		Handler: handler,
		log:     zap.L().Named("worker"),
	}
}

// Start consome a fila até o ctx ser cancelado ou o canal fechar.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.log.Info("worker waiting for stage events", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event StageChangedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		// mensagem malformada: sem requeue para não travar a fila
		w.log.Error("invalid stage event payload", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log := w.log.With(
		zap.String("event_id", event.EventID),
		zap.String("clinic_id", event.ClinicID),
		zap.Int64("lead_id", event.LeadID),
		zap.Int64("stage_id", event.ToStageID),
	)

	if err := w.Handler.HandleStageChanged(ctx, event); err != nil {
		log.Error("stage event failed, sending to DLQ", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log.Debug("stage event processed")
	_ = d.Ack(false)
}

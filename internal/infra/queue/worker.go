package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LeadNotifier is an outbound channel told about every new lead (e-mail, CRM).
type LeadNotifier interface {
	Name() string
	NotifyNewLead(ctx context.Context, event LeadCreatedEvent) error
}

type channelConsumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel   channelConsumer
	Notifiers []LeadNotifier

	// OnNotifierError, when set, is called with the notifier name on every failure.
	OnNotifierError func(notifier string)
}

func NewWorker(ch *amqp.Channel, notifiers ...LeadNotifier) *Worker {
	return &Worker{
		Channel:   ch,
		Notifiers: notifiers,
	}
}

// Start consumes lead events until ctx is cancelled or the broker closes the
// delivery channel.
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.Channel.Consume(
		QueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return eris.Wrap(err, "queue: register consumer")
	}

	zap.L().Info("lead worker waiting for events", zap.String("queue", QueueName), zap.Int("notifiers", len(w.Notifiers)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return eris.New("queue: delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event LeadCreatedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		zap.L().Error("malformed lead event, dead-lettering", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log := zap.L().With(zap.Int64("lead_id", event.LeadID), zap.String("source", event.Source))
	if err := w.processMessage(ctx, event); err != nil {
		log.Error("lead notification failed, dead-lettering", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log.Info("lead notifications sent")
	_ = d.Ack(false)
}

// processMessage calls every notifier and reports the first failure after
// giving all of them a chance to run.
func (w *Worker) processMessage(ctx context.Context, event LeadCreatedEvent) error {
	var firstErr error
	for _, n := range w.Notifiers {
		if err := n.NotifyNewLead(ctx, event); err != nil {
			zap.L().Warn("notifier failed", zap.String("notifier", n.Name()), zap.Int64("lead_id", event.LeadID), zap.Error(err))
			if w.OnNotifierError != nil {
				w.OnNotifierError(n.Name())
			}
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "queue: notifier %s", n.Name())
			}
		}
	}
	return firstErr
}

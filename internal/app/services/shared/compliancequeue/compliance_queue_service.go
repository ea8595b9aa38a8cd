package compliancequeue

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	StreamQueueName     = "compliance_audit_stream_queue"
	DeadLetterQueueName = "compliance_audit_stream_dlq"
)

// Service publishes appended audit events to a durable RabbitMQ queue
// for downstream SIEM/compliance consumers. The mongo append remains
// the source of truth; this stream is export only.
type Service struct {
	ch  *amqp.Channel
	log *zap.Logger
	mu  sync.Mutex
}

// NewService declares the durable stream and dead-letter queues and
// enables publisher confirms.
func NewService(conn *amqp.Connection, log *zap.Logger) (contracts.AuditPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		StreamQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		DeadLetterQueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		return nil, err
	}

	return &Service{ch: ch, log: log}, nil
}

func (s *Service) Publish(ctx context.Context, event *models.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	confirm, err := s.ch.PublishWithDeferredConfirmWithContext(ctx, "", StreamQueueName, false, false, amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return err
	}

	if ok, err := confirm.WaitContext(ctx); err != nil || !ok {
		s.log.Error("complianceQueue.Publish broker did not confirm",
			zap.String(constvars.LoggingEventIDKey, event.ID),
			zap.Error(err),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

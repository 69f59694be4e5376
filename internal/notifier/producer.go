package notifier

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// NotificationProducer publica los DTOs de notificación con su routing key.
// Valida antes de publicar: un DTO inválido nunca llega al broker.
type NotificationProducer struct {
	publisher bus.Publisher
	log       *zap.Logger
}

func NewNotificationProducer(publisher bus.Publisher, log *zap.Logger) *NotificationProducer {
	return &NotificationProducer{publisher: publisher, log: log}
}

func (p *NotificationProducer) SendEmail(ctx context.Context, dto *EmailNotificationDTO) error {
	if dto == nil {
		return bus.ErrNilEvent
	}
	if err := dto.Validate(); err != nil {
		return err
	}
	return p.send(ctx, EmailRoutingKey, dto.PartitionKey(), dto)
}

func (p *NotificationProducer) SendMatricula(ctx context.Context, dto *MatriculaNotificationDTO) error {
	if dto == nil {
		return bus.ErrNilEvent
	}
	if err := dto.Validate(); err != nil {
		return err
	}
	return p.send(ctx, MatriculaRoutingKey, dto.PartitionKey(), dto)
}

func (p *NotificationProducer) SendPago(ctx context.Context, dto *PagoNotificationDTO) error {
	if dto == nil {
		return bus.ErrNilEvent
	}
	if err := dto.Validate(); err != nil {
		return err
	}
	return p.send(ctx, PagoRoutingKey, dto.PartitionKey(), dto)
}

func (p *NotificationProducer) send(ctx context.Context, routingKey, key string, dto interface{}) error {
	payload, err := json.Marshal(dto)
	if err != nil {
		return err
	}

	p.log.Info("🚀 Enviando notificación",
		zap.String("routing_key", routingKey),
		zap.String("key", key),
	)
	return p.publisher.Publish(ctx, routingKey, key, payload)
}

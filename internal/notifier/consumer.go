package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// NotificationConsumer valida cada mensaje de notificación y delega en el
// NotificationService. Un fallo del envío de correo hace fallar el
// procesamiento completo, disparando la redelivery del broker.
type NotificationConsumer struct {
	service *NotificationService
	log     *zap.Logger
}

func NewNotificationConsumer(service *NotificationService, log *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{service: service, log: log}
}

// Handlers construye la tabla cola→handler para el binding de RabbitMQ.
func (c *NotificationConsumer) Handlers() bus.HandlerTable {
	return bus.HandlerTable{
		EmailQueueName:     c.HandleEmail,
		MatriculaQueueName: c.HandleMatricula,
		PagoQueueName:      c.HandlePago,
	}
}

func (c *NotificationConsumer) HandleEmail(ctx context.Context, key string, payload []byte) error {
	var dto EmailNotificationDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido EmailNotificationDTO", zap.String("to", dto.To))
	return c.service.SendEmailNotification(ctx, &dto)
}

func (c *NotificationConsumer) HandleMatricula(ctx context.Context, key string, payload []byte) error {
	var dto MatriculaNotificationDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido MatriculaNotificationDTO",
		zap.Int64("estudiante_id", dto.EstudianteID),
		zap.String("estado", dto.Estado),
	)
	return c.service.HandleMatriculaNotification(ctx, &dto)
}

func (c *NotificationConsumer) HandlePago(ctx context.Context, key string, payload []byte) error {
	var dto PagoNotificationDTO
	if err := json.Unmarshal(payload, &dto); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido PagoNotificationDTO",
		zap.Int64("pago_id", dto.PagoID),
		zap.Int64("matricula_id", dto.MatriculaID),
	)
	return c.service.HandlePagoNotification(ctx, &dto)
}

package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// SyncService reconcilia eventos remotos de usuario contra el estado local.
type SyncService interface {
	HandleUserCreated(ctx context.Context, event *sharedEvents.UserCreatedEvent) error
	HandleUserUpdated(ctx context.Context, event *sharedEvents.UserUpdatedEvent) error
	HandleUserDeleted(ctx context.Context, event *sharedEvents.UserDeletedEvent) error
}

// UserEventConsumer valida cada mensaje y delega en el SyncService. La
// máquina por mensaje es Received → Validating → Handling → {Acked |
// RedeliveryRequested}; la decisión de reintento vive en el binding del
// broker, aquí solo se clasifica el error.
type UserEventConsumer struct {
	service SyncService
	log     *zap.Logger
}

func NewUserEventConsumer(service SyncService, log *zap.Logger) *UserEventConsumer {
	return &UserEventConsumer{service: service, log: log}
}

// Handlers construye la tabla destino→handler que el arranque registra en
// los bindings del broker.
func (c *UserEventConsumer) Handlers() bus.HandlerTable {
	return bus.HandlerTable{
		sharedEvents.UserCreatedTopic: c.handleCreated,
		sharedEvents.UserUpdatedTopic: c.handleUpdated,
		sharedEvents.UserDeletedTopic: c.handleDeleted,
	}
}

func (c *UserEventConsumer) handleCreated(ctx context.Context, key string, payload []byte) error {
	var event sharedEvents.UserCreatedEvent
	if err := decode(payload, &event); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido UserCreatedEvent",
		zap.Int64("user_id", event.UserID),
		zap.String("key", key),
	)
	if err := c.service.HandleUserCreated(ctx, &event); err != nil {
		return fmt.Errorf("handle UserCreatedEvent: %w", err)
	}
	return nil
}

func (c *UserEventConsumer) handleUpdated(ctx context.Context, key string, payload []byte) error {
	var event sharedEvents.UserUpdatedEvent
	if err := decode(payload, &event); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido UserUpdatedEvent",
		zap.Int64("user_id", event.UserID),
		zap.String("key", key),
	)
	if err := c.service.HandleUserUpdated(ctx, &event); err != nil {
		return fmt.Errorf("handle UserUpdatedEvent: %w", err)
	}
	return nil
}

func (c *UserEventConsumer) handleDeleted(ctx context.Context, key string, payload []byte) error {
	var event sharedEvents.UserDeletedEvent
	if err := decode(payload, &event); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	c.log.Info("Recibido UserDeletedEvent",
		zap.Int64("user_id", event.UserID),
		zap.String("key", key),
	)
	if err := c.service.HandleUserDeleted(ctx, &event); err != nil {
		return fmt.Errorf("handle UserDeletedEvent: %w", err)
	}
	return nil
}

// decode es tolerante con campos desconocidos pero un JSON corrupto es un
// fallo de validación terminal, no un fallo de procesamiento.
func decode(payload []byte, dest interface{}) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	return nil
}

package relay

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// UserEventProducer publica los eventos de ciclo de vida de usuario. Lo
// invoca el servicio de dominio justo después de confirmar su escritura;
// fire-and-forget desde su punto de vista, pero un fallo de publicación se
// devuelve al llamante en vez de silenciarse.
type UserEventProducer struct {
	publisher bus.Publisher
	log       *zap.Logger
}

func NewUserEventProducer(publisher bus.Publisher, log *zap.Logger) *UserEventProducer {
	return &UserEventProducer{publisher: publisher, log: log}
}

func (p *UserEventProducer) SendUserCreated(ctx context.Context, event *sharedEvents.UserCreatedEvent) error {
	if event == nil {
		return bus.ErrNilEvent
	}
	// Invariante: ningún evento sale sin timestamp; lo rellena el productor.
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = time.Now().UTC()
	}
	return p.send(ctx, sharedEvents.UserCreatedTopic, event.PartitionKey(), event)
}

func (p *UserEventProducer) SendUserUpdated(ctx context.Context, event *sharedEvents.UserUpdatedEvent) error {
	if event == nil {
		return bus.ErrNilEvent
	}
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = time.Now().UTC()
	}
	return p.send(ctx, sharedEvents.UserUpdatedTopic, event.PartitionKey(), event)
}

func (p *UserEventProducer) SendUserDeleted(ctx context.Context, event *sharedEvents.UserDeletedEvent) error {
	if event == nil {
		return bus.ErrNilEvent
	}
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = time.Now().UTC()
	}
	return p.send(ctx, sharedEvents.UserDeletedTopic, event.PartitionKey(), event)
}

func (p *UserEventProducer) send(ctx context.Context, topic, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.log.Info("🚀 Enviando evento de usuario",
		zap.String("topic", topic),
		zap.String("key", key),
	)
	return p.publisher.Publish(ctx, topic, key, payload)
}

package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// EventSyncService reconcilia eventos de usuario del servicio de auth contra
// el estado local. Cada handler es idempotente: aplica como mucho una vez
// por evento lógico, la segunda entrega es un no-op logueado.
type EventSyncService struct {
	store ProcessedStore
	log   *zap.Logger
}

func NewEventSyncService(store ProcessedStore, log *zap.Logger) *EventSyncService {
	return &EventSyncService{store: store, log: log}
}

func (s *EventSyncService) HandleUserCreated(ctx context.Context, event *sharedEvents.UserCreatedEvent) error {
	first, err := s.store.MarkProcessed(ctx, sharedEvents.UserCreatedTopic, event.UserID, event.EventTimestamp)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if !first {
		s.log.Info("Evento UserCreated duplicado ignorado", zap.Int64("user_id", event.UserID))
		return nil
	}

	s.log.Info("[SYNC] UserCreatedEvent reconciliado con el servicio de auth",
		zap.Int64("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.Strings("roles", event.Roles),
	)
	return nil
}

func (s *EventSyncService) HandleUserUpdated(ctx context.Context, event *sharedEvents.UserUpdatedEvent) error {
	first, err := s.store.MarkProcessed(ctx, sharedEvents.UserUpdatedTopic, event.UserID, event.EventTimestamp)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if !first {
		s.log.Info("Evento UserUpdated duplicado ignorado", zap.Int64("user_id", event.UserID))
		return nil
	}

	s.log.Info("[SYNC] UserUpdatedEvent reconciliado con el servicio de auth",
		zap.Int64("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.Strings("roles", event.Roles),
	)
	return nil
}

func (s *EventSyncService) HandleUserDeleted(ctx context.Context, event *sharedEvents.UserDeletedEvent) error {
	first, err := s.store.MarkProcessed(ctx, sharedEvents.UserDeletedTopic, event.UserID, event.EventTimestamp)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if !first {
		s.log.Info("Evento UserDeleted duplicado ignorado", zap.Int64("user_id", event.UserID))
		return nil
	}

	s.log.Info("[SYNC] UserDeletedEvent reconciliado con el servicio de auth",
		zap.Int64("user_id", event.UserID),
	)
	return nil
}

// Verificación estática
var _ SyncService = (*EventSyncService)(nil)

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// fakeSyncService cuenta invocaciones y permite inyectar fallos.
type fakeSyncService struct {
	created int
	updated int
	deleted int
	err     error
}

func (f *fakeSyncService) HandleUserCreated(ctx context.Context, event *sharedEvents.UserCreatedEvent) error {
	f.created++
	return f.err
}

func (f *fakeSyncService) HandleUserUpdated(ctx context.Context, event *sharedEvents.UserUpdatedEvent) error {
	f.updated++
	return f.err
}

func (f *fakeSyncService) HandleUserDeleted(ctx context.Context, event *sharedEvents.UserDeletedEvent) error {
	f.deleted++
	return f.err
}

func TestHandleCreated_WellFormed(t *testing.T) {
	service := &fakeSyncService{}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	payload, _ := json.Marshal(sharedEvents.UserCreatedEvent{
		UserID:         5,
		Username:       "ana",
		Roles:          []string{"estudiante"},
		EventTimestamp: time.Now().UTC(),
	})

	handler := consumer.Handlers()[sharedEvents.UserCreatedTopic]
	require.NoError(t, handler(context.Background(), "5", payload))
	assert.Equal(t, 1, service.created)
}

func TestHandleCreated_MalformedJSON(t *testing.T) {
	service := &fakeSyncService{}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	handler := consumer.Handlers()[sharedEvents.UserCreatedTopic]
	err := handler(context.Background(), "", []byte("{not json"))

	// Terminal: se clasifica como validación y el handler de negocio no se
	// llega a invocar.
	assert.ErrorIs(t, err, bus.ErrValidation)
	assert.Equal(t, 0, service.created)
}

func TestHandleCreated_MissingUserID(t *testing.T) {
	service := &fakeSyncService{}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	payload := []byte(`{"username":"ana","email":"ana@example.com"}`)
	handler := consumer.Handlers()[sharedEvents.UserCreatedTopic]
	err := handler(context.Background(), "", payload)

	assert.ErrorIs(t, err, bus.ErrValidation)
	assert.Equal(t, 0, service.created)
}

func TestHandleCreated_UnknownFieldsIgnored(t *testing.T) {
	service := &fakeSyncService{}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	payload := []byte(`{"userId":7,"rolesExtra":["x"],"otraCosa":1}`)
	handler := consumer.Handlers()[sharedEvents.UserCreatedTopic]

	require.NoError(t, handler(context.Background(), "7", payload))
	assert.Equal(t, 1, service.created)
}

func TestHandleUpdated_ServiceFailureRequestsRedelivery(t *testing.T) {
	service := &fakeSyncService{err: errors.New("auth service unavailable")}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	payload, _ := json.Marshal(sharedEvents.UserUpdatedEvent{UserID: 9, EventTimestamp: time.Now().UTC()})
	handler := consumer.Handlers()[sharedEvents.UserUpdatedTopic]
	err := handler(context.Background(), "9", payload)

	// Fallo de procesamiento, no de validación: el binding solicitará
	// redelivery.
	require.Error(t, err)
	assert.NotErrorIs(t, err, bus.ErrValidation)
	assert.Equal(t, 1, service.updated)
}

func TestHandleDeleted_BestEffortFields(t *testing.T) {
	service := &fakeSyncService{}
	consumer := NewUserEventConsumer(service, zap.NewNop())

	// username/email pueden faltar en un Deleted; solo userId es
	// obligatorio.
	payload := []byte(`{"userId":3,"eventTimestamp":"2025-03-01T12:00:00Z"}`)
	handler := consumer.Handlers()[sharedEvents.UserDeletedTopic]

	require.NoError(t, handler(context.Background(), "3", payload))
	assert.Equal(t, 1, service.deleted)
}

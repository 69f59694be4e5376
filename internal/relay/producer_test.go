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
	"github.com/dcastanera/matriculabus/tests/mocks"
)

func TestSendUserCreated_StampsTimestamp(t *testing.T) {
	publisher := &mocks.RecordingPublisher{}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	event := &sharedEvents.UserCreatedEvent{
		UserID:   5,
		Username: "ana",
		Email:    "ana@example.com",
		Roles:    []string{"estudiante"},
	}
	require.True(t, event.EventTimestamp.IsZero())

	err := producer.SendUserCreated(context.Background(), event)
	require.NoError(t, err)

	// El payload despachado lleva timestamp no nulo.
	msgs := publisher.Messages()
	require.Len(t, msgs, 1)

	var dispatched sharedEvents.UserCreatedEvent
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &dispatched))
	assert.False(t, dispatched.EventTimestamp.IsZero())
}

func TestSendUserCreated_KeepsSuppliedTimestamp(t *testing.T) {
	publisher := &mocks.RecordingPublisher{}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	supplied := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &sharedEvents.UserCreatedEvent{UserID: 5, EventTimestamp: supplied}

	require.NoError(t, producer.SendUserCreated(context.Background(), event))

	var dispatched sharedEvents.UserCreatedEvent
	require.NoError(t, json.Unmarshal(publisher.Messages()[0].Payload, &dispatched))
	assert.True(t, supplied.Equal(dispatched.EventTimestamp))
}

func TestSendUserCreated_NilEvent(t *testing.T) {
	publisher := &mocks.RecordingPublisher{}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	err := producer.SendUserCreated(context.Background(), nil)
	assert.ErrorIs(t, err, bus.ErrNilEvent)
	// El guard actúa antes de cualquier llamada de red.
	assert.Empty(t, publisher.Messages())
}

func TestSend_KeyDerivedFromUserID(t *testing.T) {
	publisher := &mocks.RecordingPublisher{}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	event := &sharedEvents.UserUpdatedEvent{UserID: 42}
	require.NoError(t, producer.SendUserUpdated(context.Background(), event))

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, sharedEvents.UserUpdatedTopic, msgs[0].Destination)
	assert.Equal(t, "42", msgs[0].Key)
}

func TestSend_MissingUserID_EmptyKey(t *testing.T) {
	publisher := &mocks.RecordingPublisher{}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	// Sin id primario la clave queda vacía y aplica el particionado por
	// defecto del broker; la validación estructural es responsabilidad del
	// consumidor.
	event := &sharedEvents.UserDeletedEvent{}
	require.NoError(t, producer.SendUserDeleted(context.Background(), event))

	msgs := publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "", msgs[0].Key)
}

func TestSend_PublishErrorSurfaces(t *testing.T) {
	publishErr := &bus.PublishError{Destination: sharedEvents.UserCreatedTopic, Err: errors.New("broker unreachable")}
	publisher := &mocks.RecordingPublisher{Err: publishErr}
	producer := NewUserEventProducer(publisher, zap.NewNop())

	err := producer.SendUserCreated(context.Background(), &sharedEvents.UserCreatedEvent{UserID: 1})

	// El fallo llega al hilo del llamante, no se silencia.
	var perr *bus.PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, sharedEvents.UserCreatedTopic, perr.Destination)
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/config"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	"github.com/dcastanera/matriculabus/tests/mocks"
)

// fakeSource simula el reader de grupo: registra los offsets confirmados.
type fakeSource struct {
	committed []kafka.Message
}

func (s *fakeSource) FetchMessage(ctx context.Context) (kafka.Message, error) {
	return kafka.Message{}, errors.New("fetch not expected")
}

func (s *fakeSource) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	s.committed = append(s.committed, msgs...)
	return nil
}

func newTestAdapter(source MessageSource, dlq bus.Publisher, handler bus.Handler) *ConsumerAdapter {
	return &ConsumerAdapter{
		source:  source,
		topic:   "user.created",
		dlq:     dlq,
		handler: handler,
		retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
		log: zap.NewNop(),
	}
}

func testMessage() kafka.Message {
	return kafka.Message{Key: []byte("42"), Value: []byte(`{"userId":42}`), Offset: 5}
}

func TestProcessMessage_SuccessCommitsOffset(t *testing.T) {
	source := &fakeSource{}
	dlq := &mocks.RecordingPublisher{}
	calls := 0
	adapter := newTestAdapter(source, dlq, func(ctx context.Context, key string, payload []byte) error {
		calls++
		return nil
	})

	err := adapter.processMessage(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, source.committed, 1)
	assert.Empty(t, dlq.Messages())
}

func TestProcessMessage_ValidationFailureDroppedAndCommitted(t *testing.T) {
	source := &fakeSource{}
	dlq := &mocks.RecordingPublisher{}
	calls := 0
	adapter := newTestAdapter(source, dlq, func(ctx context.Context, key string, payload []byte) error {
		calls++
		return fmt.Errorf("%w: payload malformado", bus.ErrValidation)
	})

	err := adapter.processMessage(context.Background(), testMessage())

	require.NoError(t, err)
	// Validación es terminal: un solo intento, sin DLQ, offset confirmado.
	assert.Equal(t, 1, calls)
	assert.Len(t, source.committed, 1)
	assert.Empty(t, dlq.Messages())
}

func TestProcessMessage_RecoversOnRetry(t *testing.T) {
	source := &fakeSource{}
	dlq := &mocks.RecordingPublisher{}
	calls := 0
	adapter := newTestAdapter(source, dlq, func(ctx context.Context, key string, payload []byte) error {
		calls++
		if calls < 2 {
			return errors.New("servicio caído")
		}
		return nil
	})

	err := adapter.processMessage(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, source.committed, 1)
	assert.Empty(t, dlq.Messages())
}

func TestProcessMessage_ExhaustedRetriesGoToDLQ(t *testing.T) {
	source := &fakeSource{}
	dlq := &mocks.RecordingPublisher{}
	calls := 0
	adapter := newTestAdapter(source, dlq, func(ctx context.Context, key string, payload []byte) error {
		calls++
		return errors.New("servicio caído")
	})

	err := adapter.processMessage(context.Background(), testMessage())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	// El mensaje crudo acaba en el dead-letter topic y el offset se confirma.
	msgs := dlq.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user.created.dlq", msgs[0].Destination)
	assert.Equal(t, "42", msgs[0].Key)
	assert.Equal(t, `{"userId":42}`, string(msgs[0].Payload))
	assert.Len(t, source.committed, 1)
}

func TestProcessMessage_DLQFailureLeavesOffsetUncommitted(t *testing.T) {
	source := &fakeSource{}
	dlq := &mocks.RecordingPublisher{Err: errors.New("broker caído")}
	adapter := newTestAdapter(source, dlq, func(ctx context.Context, key string, payload []byte) error {
		return errors.New("servicio caído")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := adapter.processMessage(ctx, testMessage())

	// Sin DLQ no se avanza: el offset queda sin confirmar y el llamante debe
	// dejar de leer, de lo contrario un commit posterior daría el mensaje por
	// entregado.
	require.Error(t, err)
	assert.Empty(t, source.committed)
}

package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// PublishedMessage es una publicación capturada por RecordingPublisher.
type PublishedMessage struct {
	Destination string
	Key         string
	Payload     []byte
}

// RecordingPublisher captura las publicaciones para aserciones. Si Err está
// fijado, Publish falla con ese error sin registrar nada.
type RecordingPublisher struct {
	mu        sync.Mutex
	Published []PublishedMessage
	Err       error
}

func (p *RecordingPublisher) Publish(ctx context.Context, destination, key string, payload []byte) error {
	if p.Err != nil {
		return p.Err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Copiamos el payload: el llamante puede reutilizar el buffer.
	cp := make([]byte, len(payload))
	copy(cp, payload)
	p.Published = append(p.Published, PublishedMessage{Destination: destination, Key: key, Payload: cp})
	return nil
}

// Messages devuelve una copia segura de lo publicado.
func (p *RecordingPublisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedMessage, len(p.Published))
	copy(out, p.Published)
	return out
}

// MockPublisher es el mock de testify para expectativas explícitas.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, destination, key string, payload []byte) error {
	args := m.Called(ctx, destination, key, payload)
	return args.Error(0)
}

// Verificación estática
var (
	_ bus.Publisher = (*RecordingPublisher)(nil)
	_ bus.Publisher = (*MockPublisher)(nil)
)

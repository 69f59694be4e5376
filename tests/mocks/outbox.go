package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dcastanera/matriculabus/internal/outbox"
)

// MockOutboxRepository es el mock de testify de outbox.Repository.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Append(ctx context.Context, evt outbox.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockOutboxRepository) FetchPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	args := m.Called(ctx, limit)
	if evts, ok := args.Get(0).([]outbox.Event); ok {
		return evts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// InMemoryOutboxRepo simula la tabla outbox con un slice protegido.
type InMemoryOutboxRepo struct {
	mu     sync.Mutex
	Events []outbox.Event
}

func NewInMemoryOutboxRepo() *InMemoryOutboxRepo {
	return &InMemoryOutboxRepo{}
}

func (r *InMemoryOutboxRepo) Append(ctx context.Context, evt outbox.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, evt)
	return nil
}

func (r *InMemoryOutboxRepo) FetchPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []outbox.Event
	for _, evt := range r.Events {
		if !evt.Processed {
			pending = append(pending, evt)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *InMemoryOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.Events {
		if r.Events[i].ID == id {
			r.Events[i].Processed = true
			return nil
		}
	}
	return nil
}

// Verificación estática
var (
	_ outbox.Repository = (*MockOutboxRepository)(nil)
	_ outbox.Repository = (*InMemoryOutboxRepo)(nil)
)

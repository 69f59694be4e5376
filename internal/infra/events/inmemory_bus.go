package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// InMemoryBus implementa publisher y suscripción sobre canales de Go. Se usa
// cuando BROKER_ENABLED=false (desarrollo local, tests): mismo contrato que
// los brokers reales, incluida la clasificación validación/procesamiento.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]bus.Handler
	attempts int
	log      *zap.Logger
}

func NewInMemoryBus(maxAttempts int, log *zap.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]bus.Handler),
		attempts: maxAttempts,
		log:      log,
	}
}

// Register suscribe la tabla de handlers. Se invoca una vez en el arranque.
func (b *InMemoryBus) Register(table bus.HandlerTable) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for destination, handler := range table {
		b.handlers[destination] = append(b.handlers[destination], handler)
	}
}

// Publish entrega el payload a los handlers del destino en una goroutine,
// imitando el desacoplamiento productor/consumidor del broker real. Los
// fallos de procesamiento se reintentan de inmediato hasta agotar intentos.
func (b *InMemoryBus) Publish(ctx context.Context, destination, key string, payload []byte) error {
	b.mu.RLock()
	subs := b.handlers[destination]
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.log.Debug("Sin suscriptores para el destino", zap.String("destination", destination))
		return nil
	}

	// La entrega se desacopla del ciclo de vida del llamante: el contexto de
	// una petición HTTP se cancela al responder, antes de que los reintentos
	// asíncronos terminen.
	detached := context.WithoutCancel(ctx)
	for _, handler := range subs {
		go b.deliver(detached, destination, key, payload, handler)
	}
	return nil
}

func (b *InMemoryBus) deliver(ctx context.Context, destination, key string, payload []byte, handler bus.Handler) {
	for attempt := 1; attempt <= b.attempts; attempt++ {
		err := handler(ctx, key, payload)
		if err == nil {
			return
		}
		if errors.Is(err, bus.ErrValidation) {
			b.log.Warn("Mensaje inválido descartado",
				zap.String("destination", destination),
				zap.Error(err),
			)
			return
		}
		b.log.Warn("Fallo del handler en bus en memoria",
			zap.String("destination", destination),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	b.log.Error("Reintentos agotados en bus en memoria, mensaje descartado",
		zap.String("destination", destination),
	)
}

// Verificación estática
var _ bus.Publisher = (*InMemoryBus)(nil)

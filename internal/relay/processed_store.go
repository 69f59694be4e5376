package relay

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ProcessedStore registra qué eventos lógicos ya se aplicaron, para que la
// redelivery del broker no duplique efectos. La identidad lógica de un
// evento es (tipo, userId, eventTimestamp).
type ProcessedStore interface {
	// MarkProcessed registra el evento. Devuelve false si ya estaba
	// registrado (duplicado por redelivery).
	MarkProcessed(ctx context.Context, eventType string, userID int64, ts time.Time) (bool, error)
}

// ProcessedKey forma la clave canónica de un evento lógico, compartida por
// todas las implementaciones del store.
func ProcessedKey(eventType string, userID int64, ts time.Time) string {
	return fmt.Sprintf("%s:%d:%d", eventType, userID, ts.UnixNano())
}

// InMemoryProcessedStore es la implementación por defecto: suficiente para
// un único consumidor, se pierde al reiniciar el proceso.
type InMemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInMemoryProcessedStore() *InMemoryProcessedStore {
	return &InMemoryProcessedStore{seen: make(map[string]struct{})}
}

func (s *InMemoryProcessedStore) MarkProcessed(ctx context.Context, eventType string, userID int64, ts time.Time) (bool, error) {
	key := ProcessedKey(eventType, userID, ts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

// Verificación estática
var _ ProcessedStore = (*InMemoryProcessedStore)(nil)

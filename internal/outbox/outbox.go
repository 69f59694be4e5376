package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event representa un evento pendiente de publicar en el broker. Se escribe
// en la misma transacción que la mutación de dominio, cerrando la ventana de
// inconsistencia del publish tras commit.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	AggregateType string          `json:"aggregate_type"` // ej. "user"
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"` // ej. "user.updated"
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Processed     bool            `json:"processed"`
}

// Repository define las operaciones persistentes de la tabla outbox.
type Repository interface {
	// Append inserta un evento pendiente.
	Append(ctx context.Context, evt Event) error

	// FetchPending obtiene los eventos no procesados, hasta un máximo.
	FetchPending(ctx context.Context, limit int) ([]Event, error)

	// MarkProcessed marca un evento como publicado.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

// Destinations es la tabla explícita tipo de evento → destino de
// publicación, construida una vez en el arranque.
type Destinations map[string]string

// NewEvent construye un evento de outbox serializando el payload en el acto,
// para que un payload no serializable falle en la transacción de dominio y
// no en el worker.
func NewEvent(aggregateType, aggregateID, eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}, nil
}

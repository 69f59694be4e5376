package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dcastanera/matriculabus/internal/outbox"
)

// OutboxRepoSQLite implementa la interfaz outbox.Repository.
type OutboxRepoSQLite struct {
	db *sql.DB
}

func NewOutboxRepoSQLite(db *sql.DB) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db}
}

// InitSchema crea las tablas que usa el servicio de relay sobre SQLite.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			processed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS processed_events (
			event_key TEXT PRIMARY KEY,
			processed_at TIMESTAMP NOT NULL
		);
	`)
	return err
}

func (r *OutboxRepoSQLite) Append(ctx context.Context, evt outbox.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(evt.Payload), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepoSQLite) FetchPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = 0
		 ORDER BY created_at
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []outbox.Event
	for rows.Next() {
		var evt outbox.Event
		var id, payloadStr string

		if err := rows.Scan(&id, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payloadStr, &evt.CreatedAt); err != nil {
			return nil, err
		}

		// El ID se guarda como TEXT, lo parseamos de nuevo.
		parsedID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		evt.ID = parsedID
		evt.Payload = []byte(payloadStr)

		events = append(events, evt)
	}

	return events, rows.Err()
}

func (r *OutboxRepoSQLite) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE outbox SET processed = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ outbox.Repository = (*OutboxRepoSQLite)(nil)

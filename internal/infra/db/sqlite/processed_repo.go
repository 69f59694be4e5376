package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dcastanera/matriculabus/internal/relay"
)

// ProcessedRepoSQLite persiste las marcas de idempotencia del sync handler.
// A diferencia del store en memoria, las marcas sobreviven reinicios del
// consumidor.
type ProcessedRepoSQLite struct {
	db *sql.DB
}

func NewProcessedRepoSQLite(db *sql.DB) *ProcessedRepoSQLite {
	return &ProcessedRepoSQLite{db: db}
}

func (r *ProcessedRepoSQLite) MarkProcessed(ctx context.Context, eventType string, userID int64, ts time.Time) (bool, error) {
	key := relay.ProcessedKey(eventType, userID, ts)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO processed_events (event_key, processed_at) VALUES (?, ?)`,
		key, time.Now().UTC(),
	)
	if err != nil {
		// Clave duplicada: el evento ya se aplicó.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Verificación en tiempo de compilación.
var _ relay.ProcessedStore = (*ProcessedRepoSQLite)(nil)

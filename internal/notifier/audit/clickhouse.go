package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/notifier"
)

const flushInterval = 5 * time.Second

// DeliveryAuditRepo guarda el rastro de cada intento de notificación en
// ClickHouse. El buffer se vacía en lotes: ClickHouse funciona mejor con
// inserciones agrupadas que fila a fila.
type DeliveryAuditRepo struct {
	db  *sql.DB
	log *zap.Logger

	mu     sync.Mutex
	buffer []notifier.DeliveryRecord
}

func NewDeliveryAuditRepo(addr, dbName string, log *zap.Logger) (*DeliveryAuditRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &DeliveryAuditRepo{db: conn, log: log}, nil
}

// Record encola el registro; nunca bloquea ni falla hacia el consumidor.
func (r *DeliveryAuditRepo) Record(ctx context.Context, rec notifier.DeliveryRecord) {
	r.mu.Lock()
	r.buffer = append(r.buffer, rec)
	r.mu.Unlock()
}

// Start lanza el flusher periódico.
func (r *DeliveryAuditRepo) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.flush(context.Background())
				return
			case <-ticker.C:
				r.flush(ctx)
			}
		}
	}()
}

func (r *DeliveryAuditRepo) flush(ctx context.Context) {
	r.mu.Lock()
	batch := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := r.insertBatch(ctx, batch); err != nil {
		// La auditoría es best-effort: se loguea y se descarta el lote.
		r.log.Warn("⚠️ No se pudo volcar el lote de auditoría", zap.Int("size", len(batch)), zap.Error(err))
	}
}

func (r *DeliveryAuditRepo) insertBatch(ctx context.Context, batch []notifier.DeliveryRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO notification_deliveries (queue, recipient, subject, status, error, attempted_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.ExecContext(
			ctx,
			rec.Queue,
			rec.To,
			rec.Subject,
			rec.Status,
			rec.Error,
			rec.At,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for delivery to %s: %w", rec.To, err)
		}
	}

	return tx.Commit()
}

// Verificación estática
var _ notifier.DeliveryAudit = (*DeliveryAuditRepo)(nil)

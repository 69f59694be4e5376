package outbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// Worker procesa eventos pendientes de la tabla outbox de forma genérica.
// At-least-once: un evento solo se marca como procesado si la publicación
// tuvo éxito, así que el consumidor puede verlo más de una vez.
type Worker struct {
	repo         Repository
	publisher    bus.Publisher
	destinations Destinations
	interval     time.Duration
	batchSize    int
	log          *zap.Logger
}

func NewWorker(
	repo Repository,
	publisher bus.Publisher,
	destinations Destinations,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:         repo,
		publisher:    publisher,
		destinations: destinations,
		interval:     interval,
		batchSize:    batchSize,
		log:          log,
	}
}

// Start inicia el bucle de polling del worker.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

		for {
			select {
			case <-ctx.Done():
				w.log.Info("🛑 Outbox worker detenido")
				return
			case <-ticker.C:
				w.ProcessBatch(ctx)
			}
		}
	}()
}

func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPending(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	for _, evt := range events {
		w.publishAndMark(ctx, evt)
	}
}

func (w *Worker) publishAndMark(ctx context.Context, evt Event) {
	destination, ok := w.destinations[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento sin destino registrado",
			zap.String("event_type", evt.EventType),
			zap.String("event_id", evt.ID.String()),
		)
		return
	}

	if err := w.publisher.Publish(ctx, destination, evt.AggregateID, evt.Payload); err != nil {
		// No se marca como procesado para que se reintente en el
		// siguiente ciclo.
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := w.repo.MarkProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	} else {
		w.log.Info("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()))
	}
}

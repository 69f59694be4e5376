package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/config"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// MessageSource abstrae el reader de grupo: fetch sin auto-commit y commit
// explícito del offset. *kafka.Reader la satisface tal cual.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// ConsumerAdapter es el "oído" que escucha un topic de Kafka y entrega cada
// mensaje al handler registrado. Offset explícito: solo se confirma tras
// procesar (at-least-once), por lo que el handler debe ser idempotente.
type ConsumerAdapter struct {
	source  MessageSource
	topic   string
	dlq     bus.Publisher
	handler bus.Handler
	retry   config.RetryConfig
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, dlq bus.Publisher, handler bus.Handler, retry config.RetryConfig, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		source:  reader,
		topic:   reader.Config().Topic,
		dlq:     dlq,
		handler: handler,
		retry:   retry,
		log:     log,
	}
}

// NewReader construye el reader de grupo con los mismos parámetros que usa
// todo el servicio. CommitInterval queda en 0: commits síncronos explícitos.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// Start inicia el bucle de consumo en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka", zap.String("topic", c.topic))

	go func() {
		for {
			msg, err := c.source.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido", zap.String("topic", c.topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				// El offset quedó sin confirmar a propósito. Seguir leyendo
				// confirmaría un offset superior y daría el mensaje por
				// entregado; se corta el consumo y al rearrancar el grupo
				// reanuda desde aquí.
				c.log.Error("Mensaje sin resolver, consumo detenido",
					zap.String("topic", c.topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				return
			}
		}
	}()
}

// processMessage clasifica el resultado del handler y confirma el offset.
// Devuelve error solo cuando el offset se deja sin confirmar: en ese caso el
// llamante NO debe leer el siguiente mensaje.
func (c *ConsumerAdapter) processMessage(ctx context.Context, msg kafka.Message) error {
	err := c.handleWithRetry(ctx, msg)

	switch {
	case err == nil:
		// Acked: commit del offset.

	case errors.Is(err, bus.ErrValidation):
		// Mensaje malformado: se loguea y se descarta. Reintentarlo no
		// lo va a arreglar.
		c.log.Warn("Mensaje inválido descartado",
			zap.String("topic", c.topic),
			zap.String("key", string(msg.Key)),
			zap.Error(err),
		)

	default:
		// Reintentos agotados: el mensaje crudo va al dead-letter topic y
		// se confirma el original para desbloquear la partición.
		c.log.Error("Reintentos agotados, enviando a DLQ",
			zap.String("topic", c.topic),
			zap.String("key", string(msg.Key)),
			zap.Int("max_attempts", c.retry.MaxAttempts),
			zap.Error(err),
		)
		if dlqErr := c.publishToDLQ(ctx, msg); dlqErr != nil {
			return fmt.Errorf("dead-letter %s: %w", c.topic, dlqErr)
		}
	}

	if commitErr := c.source.CommitMessages(ctx, msg); commitErr != nil {
		return fmt.Errorf("commit offset %d: %w", msg.Offset, commitErr)
	}
	return nil
}

// publishToDLQ reintenta la escritura en el dead-letter topic hasta que entre
// o el contexto se cancele: si se pierde el DLQ y se confirma el offset, el
// mensaje deja de existir para el grupo.
func (c *ConsumerAdapter) publishToDLQ(ctx context.Context, msg kafka.Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval
	bo.MaxElapsedTime = 0 // sin tope propio: acota el contexto

	return backoff.Retry(func() error {
		err := c.dlq.Publish(ctx, c.topic+sharedEvents.DLQSuffix, string(msg.Key), msg.Value)
		if err != nil {
			c.log.Warn("No se pudo escribir en DLQ, se reintentará",
				zap.String("topic", c.topic),
				zap.Error(err),
			)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

// handleWithRetry ejecuta el handler con backoff exponencial acotado. Los
// errores de validación son permanentes y cortan el ciclo de inmediato.
func (c *ConsumerAdapter) handleWithRetry(ctx context.Context, msg kafka.Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retry.MaxAttempts-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.handler(ctx, string(msg.Key), msg.Value)
		if err == nil {
			return nil
		}
		if errors.Is(err, bus.ErrValidation) {
			return backoff.Permanent(err)
		}
		c.log.Warn("Fallo del handler, se reintentará",
			zap.String("topic", c.topic),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return &bus.ProcessingError{Destination: c.topic, Err: err}
	}, policy)
}

package rabbit

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/config"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// ConsumerAdapter consume una cola durable con ack manual. El mensaje solo
// se confirma cuando el handler termina sin error; un fallo lo rechaza hacia
// la cola de retry y, agotados los intentos, acaba en la DLQ.
type ConsumerAdapter struct {
	conn    *amqp.Connection
	queue   string
	handler bus.Handler
	retry   config.RetryConfig
	log     *zap.Logger
}

func NewConsumerAdapter(conn *amqp.Connection, queue string, handler bus.Handler, retry config.RetryConfig, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		conn:    conn,
		queue:   queue,
		handler: handler,
		retry:   retry,
		log:     log,
	}
}

// Start abre un canal propio (los canales no se comparten entre goroutines)
// y lanza el bucle de consumo.
func (c *ConsumerAdapter) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}

	// Un mensaje en vuelo por worker: el handler es síncrono.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.log.Info("🎧 Iniciando consumidor de RabbitMQ", zap.String("queue", c.queue))

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				c.log.Info("Consumidor de RabbitMQ detenido", zap.String("queue", c.queue))
				return
			case d, ok := <-deliveries:
				if !ok {
					c.log.Warn("Canal de entregas cerrado", zap.String("queue", c.queue))
					return
				}
				c.processDelivery(ctx, ch, d)
			}
		}
	}()
	return nil
}

func (c *ConsumerAdapter) processDelivery(ctx context.Context, ch *amqp.Channel, d amqp.Delivery) {
	err := c.handler(ctx, d.MessageId, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			c.log.Error("Error al confirmar mensaje", zap.String("queue", c.queue), zap.Error(ackErr))
		}
		return
	}

	if errors.Is(err, bus.ErrValidation) {
		// Malformado: se descarta tras loguear, reintentarlo no tiene sentido.
		c.log.Warn("Mensaje inválido descartado",
			zap.String("queue", c.queue),
			zap.Error(err),
		)
		_ = d.Ack(false)
		return
	}

	perr := &bus.ProcessingError{Destination: c.queue, Err: err}

	if deathCount(d.Headers, c.queue) >= int64(c.retry.MaxAttempts-1) {
		c.log.Error("Reintentos agotados, enviando a DLQ",
			zap.String("queue", c.queue),
			zap.Int("max_attempts", c.retry.MaxAttempts),
			zap.Error(perr),
		)
		// Publicación directa a la DLQ vía el exchange por defecto.
		if dlqErr := ch.PublishWithContext(ctx, "", DeadLetterQueue, false, false, amqp.Publishing{
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    d.MessageId,
			Headers:      d.Headers,
			Body:         d.Body,
		}); dlqErr != nil {
			c.log.Error("No se pudo escribir en DLQ, mensaje rechazado con requeue", zap.Error(dlqErr))
			_ = d.Nack(false, true)
			return
		}
		_ = d.Ack(false)
		return
	}

	c.log.Warn("Fallo del handler, mensaje hacia cola de retry",
		zap.String("queue", c.queue),
		zap.Int64("deaths", deathCount(d.Headers, c.queue)),
		zap.Error(perr),
	)
	// Nack sin requeue: la política de dead-letter de la cola lo manda a su
	// retry queue, donde espera el TTL antes de volver.
	_ = d.Nack(false, false)
}

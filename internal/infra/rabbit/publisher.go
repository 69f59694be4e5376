package rabbit

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// Publisher publica en el exchange de topic. Los canales AMQP no soportan
// publicación concurrente, así que se serializa con un mutex: el publisher
// es un singleton de proceso compartido por todos los worker threads.
type Publisher struct {
	ch  *amqp.Channel
	mu  sync.Mutex
	log *zap.Logger
}

func NewPublisher(conn *amqp.Connection, log *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return &Publisher{ch: ch, log: log}, nil
}

// Publish envía el payload al exchange con la routing key indicada. La clave
// de negocio viaja como MessageId (metadato del broker, no del body JSON).
func (p *Publisher) Publish(ctx context.Context, destination, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx,
		NotificationsExchange,
		destination, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    key,
			Body:         payload,
		},
	)
	if err != nil {
		p.log.Error("Error publicando en RabbitMQ",
			zap.String("exchange", NotificationsExchange),
			zap.String("routing_key", destination),
			zap.Error(err),
		)
		return &bus.PublishError{Destination: destination, Err: err}
	}

	p.log.Debug("Notificación publicada",
		zap.String("exchange", NotificationsExchange),
		zap.String("routing_key", destination),
		zap.String("key", key),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Verificación estática
var _ bus.Publisher = (*Publisher)(nil)

package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// Publisher escribe en el log particionado. El writer es genérico: el topic
// viene en cada mensaje, así un solo writer sirve a todos los destinos.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewPublisher(brokers []string, log *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{}, // misma key → misma partición → orden por key
	}
	return &Publisher{writer: writer, log: log}
}

func (p *Publisher) Publish(ctx context.Context, destination, key string, payload []byte) error {
	var msgKey []byte
	if key != "" {
		msgKey = []byte(key)
	}

	msg := kafka.Message{
		Topic: destination,
		Key:   msgKey,
		Value: payload,
	}

	// WriteMessages espera la confirmación del líder; un broker inalcanzable
	// se devuelve como error al hilo del llamante, nunca se silencia.
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publicando en Kafka",
			zap.String("topic", destination),
			zap.Error(err),
		)
		return &bus.PublishError{Destination: destination, Err: err}
	}

	p.log.Debug("Evento publicado",
		zap.String("topic", destination),
		zap.String("key", key),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Verificación estática
var _ bus.Publisher = (*Publisher)(nil)

package rabbit

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dcastanera/matriculabus/internal/notifier"
)

const (
	// NotificationsExchange es el topic exchange al que publican los
	// productores de notificaciones.
	NotificationsExchange = "notifications.exchange"

	// DeadLetterQueue recibe los mensajes que agotaron sus reintentos.
	DeadLetterQueue = "notifications.dlq"

	retrySuffix = ".retry"

	// retryDelayMs es el TTL de las colas de retry: el tiempo que un mensaje
	// rechazado espera antes de volver a su cola de trabajo.
	retryDelayMs = 5000
)

var queueBindings = map[string]string{
	notifier.EmailQueueName:     notifier.EmailRoutingKey,
	notifier.MatriculaQueueName: notifier.MatriculaRoutingKey,
	notifier.PagoQueueName:      notifier.PagoRoutingKey,
}

// DeclareTopology declara el exchange de topic, las colas durables con sus
// bindings y, por cada cola de trabajo, una cola de retry con TTL que
// devuelve el mensaje a su cola de origen vía el exchange por defecto. El
// rechazo sin requeue incrementa x-death, que es lo que acota el consumidor.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(NotificationsExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", NotificationsExchange, err)
	}

	for queue, routingKey := range queueBindings {
		retryQueue := queue + retrySuffix

		// Cola de trabajo: al rechazar, el mensaje muere hacia su retry.
		if _, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": retryQueue,
		}); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Cola de retry: el TTL expira y el mensaje vuelve a la de trabajo.
		if _, err := ch.QueueDeclare(retryQueue, true, false, false, false, amqp.Table{
			"x-message-ttl":             int32(retryDelayMs),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		}); err != nil {
			return fmt.Errorf("declare queue %s: %w", retryQueue, err)
		}

		if err := ch.QueueBind(queue, routingKey, NotificationsExchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", queue, routingKey, err)
		}
	}

	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", DeadLetterQueue, err)
	}

	return nil
}

// deathCount cuenta los rechazos acumulados desde la cola de trabajo. Cada
// ciclo de retry genera dos entradas x-death (rejected en la cola de trabajo,
// expired en la de retry); contar las dos duplicaría los intentos, así que
// solo se suman las entradas de la propia cola.
func deathCount(headers amqp.Table, queue string) int64 {
	deaths, ok := headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	var total int64
	for _, d := range deaths {
		entry, ok := d.(amqp.Table)
		if !ok {
			continue
		}
		if name, ok := entry["queue"].(string); !ok || name != queue {
			continue
		}
		if count, ok := entry["count"].(int64); ok {
			total += count
		}
	}
	return total
}

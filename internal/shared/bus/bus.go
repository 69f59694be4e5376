package bus

import (
	"context"
	"errors"
	"fmt"
)

// Keyer lo implementan los eventos que aportan su propia clave de partición.
type Keyer interface {
	PartitionKey() string
}

// Publisher es el puerto de salida hacia el broker. El destino es el nombre
// lógico (topic de Kafka o routing key de Rabbit); la clave puede ser vacía,
// en cuyo caso aplica el particionado por defecto del broker.
type Publisher interface {
	Publish(ctx context.Context, destination, key string, payload []byte) error
}

// Handler procesa un mensaje entregado por el broker. Un error de validación
// (errors.Is(err, ErrValidation)) hace que el mensaje se descarte sin
// reintento; cualquier otro error solicita redelivery.
type Handler func(ctx context.Context, key string, payload []byte) error

// HandlerTable es la tabla explícita destino→handler que cada binario
// construye una vez en el arranque, en lugar de registro declarativo.
type HandlerTable map[string]Handler

var (
	// ErrValidation marca un payload estructuralmente inválido (sin id
	// primario, JSON corrupto). Terminal: se loguea y se descarta.
	ErrValidation = errors.New("invalid message payload")

	// ErrNilEvent lo devuelve el productor cuando se le pasa un evento nil,
	// antes de intentar cualquier llamada de red.
	ErrNilEvent = errors.New("event must not be nil")

	// ErrTransport marca un fallo del envío de correo. Para el consumidor es
	// un fallo de procesamiento más: provoca redelivery del mensaje original.
	ErrTransport = errors.New("mail transport failure")
)

// ProcessingError envuelve el fallo de un handler para que el binding del
// broker no confirme el mensaje y se solicite redelivery.
type ProcessingError struct {
	Destination string
	Err         error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Destination, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// PublishError envuelve un fallo de publicación. Llega al hilo del servicio
// de dominio que invocó al productor; la escritura ya confirmada NO se
// revierte (ventana de inconsistencia conocida, ver outbox).
type PublishError struct {
	Destination string
	Err         error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Destination, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

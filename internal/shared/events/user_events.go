package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// Topics del ciclo de vida de usuario. Contrato estable entre el servicio de
// auth (productor) y el servicio de sincronización (consumidor).
const (
	UserCreatedTopic = "user.created"
	UserUpdatedTopic = "user.updated"
	UserDeletedTopic = "user.deleted"
)

// DLQSuffix se añade al topic de origen para formar su dead-letter topic.
const DLQSuffix = ".dlq"

// Estos son contratos de integración, NO entidades del dominio.
// Se definen planos para intercambio entre servicios.
type UserCreatedEvent struct {
	UserID         int64     `json:"userId"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

type UserUpdatedEvent struct {
	UserID         int64     `json:"userId"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Roles          []string  `json:"roles"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

// UserDeletedEvent lleva username/email en best-effort: pueden faltar si el
// registro ya no existe cuando se emite el evento.
type UserDeletedEvent struct {
	UserID         int64     `json:"userId"`
	Username       string    `json:"username,omitempty"`
	Email          string    `json:"email,omitempty"`
	Roles          []string  `json:"roles,omitempty"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

func (e *UserCreatedEvent) PartitionKey() string { return userKey(e.UserID) }
func (e *UserUpdatedEvent) PartitionKey() string { return userKey(e.UserID) }
func (e *UserDeletedEvent) PartitionKey() string { return userKey(e.UserID) }

// userKey deriva la clave de partición del id primario; vacía si falta, para
// que aplique el particionado por defecto del broker.
func userKey(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Validate comprueba la estructura mínima exigida en consumo: el id primario
// es obligatorio; el resto de campos son best-effort.
func (e *UserCreatedEvent) Validate() error {
	if e.UserID == 0 {
		return fmt.Errorf("%w: userId is required", bus.ErrValidation)
	}
	return nil
}

func (e *UserUpdatedEvent) Validate() error {
	if e.UserID == 0 {
		return fmt.Errorf("%w: userId is required", bus.ErrValidation)
	}
	return nil
}

func (e *UserDeletedEvent) Validate() error {
	if e.UserID == 0 {
		return fmt.Errorf("%w: userId is required", bus.ErrValidation)
	}
	return nil
}

// Verificación estática
var (
	_ bus.Keyer = (*UserCreatedEvent)(nil)
	_ bus.Keyer = (*UserUpdatedEvent)(nil)
	_ bus.Keyer = (*UserDeletedEvent)(nil)
)

package notifier

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

var validate = validator.New()

// EmailNotificationDTO es un email listo para enviar. Se construye una vez
// por notificación y vive solo durante el ciclo publicar-o-consumir.
type EmailNotificationDTO struct {
	To      string `json:"to" binding:"required,email" validate:"required,email"`
	Subject string `json:"subject" binding:"required" validate:"required"`
	Message string `json:"message" binding:"required" validate:"required"`
}

// NewEmailNotification valida en la construcción, sin builders.
func NewEmailNotification(to, subject, message string) (*EmailNotificationDTO, error) {
	dto := &EmailNotificationDTO{To: to, Subject: subject, Message: message}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return dto, nil
}

func (d *EmailNotificationDTO) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	return nil
}

func (d *EmailNotificationDTO) PartitionKey() string { return d.To }

// MatriculaNotificationDTO notifica un cambio de estado de matrícula. No es
// un email: es la entrada del paso de templating que lo deriva.
type MatriculaNotificationDTO struct {
	EstudianteID int64  `json:"estudianteId" binding:"required" validate:"required"`
	SeccionID    int64  `json:"seccionId" binding:"required" validate:"required"`
	Estado       string `json:"estado" binding:"required" validate:"required"`
	EmailDestino string `json:"emailDestino" binding:"required,email" validate:"required,email"`
}

func NewMatriculaNotification(estudianteID, seccionID int64, estado, emailDestino string) (*MatriculaNotificationDTO, error) {
	dto := &MatriculaNotificationDTO{
		EstudianteID: estudianteID,
		SeccionID:    seccionID,
		Estado:       estado,
		EmailDestino: emailDestino,
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return dto, nil
}

func (d *MatriculaNotificationDTO) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	return nil
}

func (d *MatriculaNotificationDTO) PartitionKey() string {
	return strconv.FormatInt(d.EstudianteID, 10)
}

// PagoNotificationDTO notifica un pago completado.
type PagoNotificationDTO struct {
	PagoID       int64           `json:"pagoId" binding:"required" validate:"required"`
	MatriculaID  int64           `json:"matriculaId" binding:"required" validate:"required"`
	Monto        decimal.Decimal `json:"monto"`
	EmailDestino string          `json:"emailDestino" binding:"required,email" validate:"required,email"`
}

func NewPagoNotification(pagoID, matriculaID int64, monto decimal.Decimal, emailDestino string) (*PagoNotificationDTO, error) {
	dto := &PagoNotificationDTO{
		PagoID:       pagoID,
		MatriculaID:  matriculaID,
		Monto:        monto,
		EmailDestino: emailDestino,
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return dto, nil
}

func (d *PagoNotificationDTO) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", bus.ErrValidation, err)
	}
	// validator no sabe de decimales; el monto negativo se comprueba aparte.
	if d.Monto.IsNegative() {
		return fmt.Errorf("%w: monto must be non-negative", bus.ErrValidation)
	}
	return nil
}

func (d *PagoNotificationDTO) PartitionKey() string {
	return strconv.FormatInt(d.PagoID, 10)
}

// Verificación estática
var (
	_ bus.Keyer = (*EmailNotificationDTO)(nil)
	_ bus.Keyer = (*MatriculaNotificationDTO)(nil)
	_ bus.Keyer = (*PagoNotificationDTO)(nil)
)

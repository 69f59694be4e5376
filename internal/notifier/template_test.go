package notifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildMatricula_Deterministic(t *testing.T) {
	builder := NewEmailTemplateBuilder()
	dto := &MatriculaNotificationDTO{
		EstudianteID: 7,
		SeccionID:    3,
		Estado:       "APROBADA",
		EmailDestino: "alumno@example.com",
	}

	subject1 := builder.BuildMatriculaSubject(dto)
	subject2 := builder.BuildMatriculaSubject(dto)
	body1 := builder.BuildMatriculaBody(dto)
	body2 := builder.BuildMatriculaBody(dto)

	assert.Equal(t, "Estado de matrícula: APROBADA", subject1)
	assert.Equal(t, subject1, subject2)
	assert.Equal(t, body1, body2)
	assert.Equal(t, "Estimado estudiante 7\nSu matrícula en la sección 3 ha cambiado de estado a: APROBADA.", body1)
}

func TestBuildPago_Subject(t *testing.T) {
	builder := NewEmailTemplateBuilder()
	dto := &PagoNotificationDTO{
		PagoID:       42,
		MatriculaID:  9,
		Monto:        decimal.RequireFromString("150.00"),
		EmailDestino: "a@b.com",
	}

	assert.Equal(t, "Confirmación de pago #42", builder.BuildPagoSubject(dto))
}

func TestBuildPago_BodyKeepsScale(t *testing.T) {
	builder := NewEmailTemplateBuilder()
	dto := &PagoNotificationDTO{
		PagoID:       42,
		MatriculaID:  9,
		Monto:        decimal.RequireFromString("150.00"),
		EmailDestino: "a@b.com",
	}

	// El monto se renderiza con la escala original, como el BigDecimal de
	// la pasarela de pagos.
	assert.Equal(t, "Estimado usuario,\nHemos recibido su pago por el monto de 150.00 asociado a la matrícula 9.", builder.BuildPagoBody(dto))
}

package notifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

func TestNewEmailNotification_RejectsBadAddress(t *testing.T) {
	dto, err := NewEmailNotification("no-es-un-email", "asunto", "cuerpo")

	assert.Nil(t, dto)
	assert.ErrorIs(t, err, bus.ErrValidation)
}

func TestNewEmailNotification_RejectsEmptySubject(t *testing.T) {
	_, err := NewEmailNotification("a@b.com", "", "cuerpo")

	assert.ErrorIs(t, err, bus.ErrValidation)
}

func TestNewMatriculaNotification_RejectsMissingEstado(t *testing.T) {
	_, err := NewMatriculaNotification(7, 3, "", "a@b.com")

	assert.ErrorIs(t, err, bus.ErrValidation)
}

func TestNewPagoNotification_RejectsNegativeMonto(t *testing.T) {
	_, err := NewPagoNotification(42, 9, decimal.RequireFromString("-1.00"), "a@b.com")

	assert.ErrorIs(t, err, bus.ErrValidation)
}

func TestNewPagoNotification_AcceptsZeroMonto(t *testing.T) {
	dto, err := NewPagoNotification(42, 9, decimal.Zero, "a@b.com")

	require.NoError(t, err)
	assert.Equal(t, "42", dto.PartitionKey())
}

func TestPartitionKeys(t *testing.T) {
	email, err := NewEmailNotification("a@b.com", "asunto", "cuerpo")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email.PartitionKey())

	matricula, err := NewMatriculaNotification(7, 3, "APROBADA", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "7", matricula.PartitionKey())
}

package notifier

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
	"github.com/dcastanera/matriculabus/tests/mocks"
)

func newConsumer(mailer *mocks.FakeMailer) *NotificationConsumer {
	service := NewNotificationService(mailer, NewEmailTemplateBuilder(), nil, zap.NewNop())
	return NewNotificationConsumer(service, zap.NewNop())
}

func TestHandlePago_EndToEnd(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	consumer := newConsumer(mailer)

	dto := PagoNotificationDTO{
		PagoID:       42,
		MatriculaID:  9,
		Monto:        decimal.RequireFromString("150.00"),
		EmailDestino: "a@b.com",
	}
	payload, _ := json.Marshal(dto)

	require.NoError(t, consumer.HandlePago(context.Background(), "42", payload))

	sent := mailer.SentEmails()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.com", sent[0].To)
	assert.Equal(t, "Confirmación de pago #42", sent[0].Subject)
}

func TestHandlePago_MalformedDropped(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	consumer := newConsumer(mailer)

	err := consumer.HandlePago(context.Background(), "", []byte("{{"))

	assert.ErrorIs(t, err, bus.ErrValidation)
	assert.Empty(t, mailer.SentEmails())
}

func TestHandleMatricula_MissingEmailDestino(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	consumer := newConsumer(mailer)

	payload := []byte(`{"estudianteId":7,"seccionId":3,"estado":"APROBADA"}`)
	err := consumer.HandleMatricula(context.Background(), "7", payload)

	assert.ErrorIs(t, err, bus.ErrValidation)
	assert.Empty(t, mailer.SentEmails())
}

func TestHandleEmail_TransportFailureRequestsRedelivery(t *testing.T) {
	mailer := &mocks.FakeMailer{Err: bus.ErrTransport}
	consumer := newConsumer(mailer)

	payload := []byte(`{"to":"a@b.com","subject":"hola","message":"cuerpo"}`)
	err := consumer.HandleEmail(context.Background(), "", payload)

	// No es un fallo de validación: el binding debe solicitar redelivery.
	require.Error(t, err)
	assert.ErrorIs(t, err, bus.ErrTransport)
	assert.NotErrorIs(t, err, bus.ErrValidation)
}

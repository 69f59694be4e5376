package notifier

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/mail"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	"github.com/dcastanera/matriculabus/tests/mocks"
)

// fakeAudit captura los registros de auditoría.
type fakeAudit struct {
	mu      sync.Mutex
	Records []DeliveryRecord
}

func (a *fakeAudit) Record(ctx context.Context, rec DeliveryRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Records = append(a.Records, rec)
}

func newService(mailer mail.Mailer, audit DeliveryAudit) *NotificationService {
	return NewNotificationService(mailer, NewEmailTemplateBuilder(), audit, zap.NewNop())
}

func TestHandlePagoNotification_RendersAndSends(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	service := newService(mailer, nil)

	dto := &PagoNotificationDTO{
		PagoID:       42,
		MatriculaID:  9,
		Monto:        decimal.RequireFromString("150.00"),
		EmailDestino: "a@b.com",
	}

	require.NoError(t, service.HandlePagoNotification(context.Background(), dto))

	sent := mailer.SentEmails()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.com", sent[0].To)
	assert.Equal(t, "Confirmación de pago #42", sent[0].Subject)
}

func TestHandleMatriculaNotification_RendersAndSends(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	service := newService(mailer, nil)

	dto := &MatriculaNotificationDTO{
		EstudianteID: 7,
		SeccionID:    3,
		Estado:       "APROBADA",
		EmailDestino: "alumno@example.com",
	}

	require.NoError(t, service.HandleMatriculaNotification(context.Background(), dto))

	sent := mailer.SentEmails()
	require.Len(t, sent, 1)
	assert.Equal(t, "alumno@example.com", sent[0].To)
	assert.Equal(t, "Estado de matrícula: APROBADA", sent[0].Subject)
}

func TestSendEmailNotification_TransportFailurePropagates(t *testing.T) {
	mailer := &mocks.FakeMailer{Err: bus.ErrTransport}
	audit := &fakeAudit{}
	service := newService(mailer, audit)

	dto := &EmailNotificationDTO{To: "a@b.com", Subject: "hola", Message: "cuerpo"}
	err := service.SendEmailNotification(context.Background(), dto)

	// El fallo del transporte hace fallar el procesamiento completo del
	// mensaje: el broker decidirá la redelivery.
	require.ErrorIs(t, err, bus.ErrTransport)
	assert.Empty(t, mailer.SentEmails())

	require.Len(t, audit.Records, 1)
	assert.Equal(t, "failed", audit.Records[0].Status)
}

func TestSendEmailNotification_AuditsSuccess(t *testing.T) {
	mailer := &mocks.FakeMailer{}
	audit := &fakeAudit{}
	service := newService(mailer, audit)

	dto := &EmailNotificationDTO{To: "a@b.com", Subject: "hola", Message: "cuerpo"}
	require.NoError(t, service.SendEmailNotification(context.Background(), dto))

	require.Len(t, audit.Records, 1)
	assert.Equal(t, "sent", audit.Records[0].Status)
	assert.Equal(t, EmailQueueName, audit.Records[0].Queue)
}

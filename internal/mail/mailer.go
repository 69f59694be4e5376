package mail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// FromAddress es el remitente fijo del servicio de notificaciones.
const FromAddress = "no-reply@notification-service.local"

// Email es el sobre transitorio que se construye por notificación; nunca se
// persiste.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer envía de forma síncrona. No reintenta por su cuenta: el reintento,
// si lo hay, viene de la redelivery del mensaje original en el broker.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer envía por SMTP. El dialer es seguro para uso concurrente: abre
// una conexión por envío.
type SMTPMailer struct {
	dialer *gomail.Dialer
	log    *zap.Logger
}

func NewSMTPMailer(host string, port int, user, pass string, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		log:    log,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", FromAddress)
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error("Error enviando email",
			zap.String("to", email.To),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", bus.ErrTransport, err)
	}

	m.log.Info("Email enviado",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

// NoopMailer solo loguea. Se usa con MAIL_ENABLED=false.
type NoopMailer struct {
	log *zap.Logger
}

func NewNoopMailer(log *zap.Logger) *NoopMailer {
	return &NoopMailer{log: log}
}

func (m *NoopMailer) Send(ctx context.Context, email Email) error {
	m.log.Info("⚠️ Mail desactivado, simulando envío",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

// Verificación estática
var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*NoopMailer)(nil)
)

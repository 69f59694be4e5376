package mocks

import (
	"context"
	"sync"

	"github.com/dcastanera/matriculabus/internal/mail"
)

// FakeMailer captura los emails enviados. Si Err está fijado, Send falla con
// ese error y el envío no se registra.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []mail.Email
	Err  error
}

func (m *FakeMailer) Send(ctx context.Context, email mail.Email) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, email)
	return nil
}

// SentEmails devuelve una copia segura de lo enviado.
func (m *FakeMailer) SentEmails() []mail.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Email, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// Verificación estática
var _ mail.Mailer = (*FakeMailer)(nil)

package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dcastanera/matriculabus/internal/mail"
)

// DeliveryRecord es el rastro operacional de un intento de notificación.
type DeliveryRecord struct {
	Queue   string
	To      string
	Subject string
	Status  string // "sent" | "failed"
	Error   string
	At      time.Time
}

// DeliveryAudit registra cada intento en el sink de auditoría. Fire-and-
// forget: un fallo del sink nunca afecta al procesamiento del mensaje.
type DeliveryAudit interface {
	Record(ctx context.Context, rec DeliveryRecord)
}

// NotificationService convierte DTOs de negocio en emails y los entrega al
// transporte. El envío es síncrono dentro de la misma invocación del
// consumidor: si falla, falla el procesamiento completo del mensaje y aplica
// la política de redelivery del broker.
type NotificationService struct {
	mailer    mail.Mailer
	templates *EmailTemplateBuilder
	audit     DeliveryAudit // puede ser nil
	log       *zap.Logger
}

func NewNotificationService(mailer mail.Mailer, templates *EmailTemplateBuilder, audit DeliveryAudit, log *zap.Logger) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		templates: templates,
		audit:     audit,
		log:       log,
	}
}

func (s *NotificationService) SendEmailNotification(ctx context.Context, dto *EmailNotificationDTO) error {
	return s.send(ctx, EmailQueueName, dto)
}

func (s *NotificationService) HandleMatriculaNotification(ctx context.Context, dto *MatriculaNotificationDTO) error {
	emailDto, err := NewEmailNotification(
		dto.EmailDestino,
		s.templates.BuildMatriculaSubject(dto),
		s.templates.BuildMatriculaBody(dto),
	)
	if err != nil {
		return err
	}
	return s.send(ctx, MatriculaQueueName, emailDto)
}

func (s *NotificationService) HandlePagoNotification(ctx context.Context, dto *PagoNotificationDTO) error {
	emailDto, err := NewEmailNotification(
		dto.EmailDestino,
		s.templates.BuildPagoSubject(dto),
		s.templates.BuildPagoBody(dto),
	)
	if err != nil {
		return err
	}
	return s.send(ctx, PagoQueueName, emailDto)
}

func (s *NotificationService) send(ctx context.Context, queue string, dto *EmailNotificationDTO) error {
	envelope := mail.Email{To: dto.To, Subject: dto.Subject, Body: dto.Message}

	if err := s.mailer.Send(ctx, envelope); err != nil {
		s.record(ctx, queue, dto, "failed", err.Error())
		return err
	}

	s.record(ctx, queue, dto, "sent", "")
	s.log.Info("Notificación procesada",
		zap.String("queue", queue),
		zap.String("to", dto.To),
		zap.String("subject", dto.Subject),
	)
	return nil
}

func (s *NotificationService) record(ctx context.Context, queue string, dto *EmailNotificationDTO, status, errMsg string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, DeliveryRecord{
		Queue:   queue,
		To:      dto.To,
		Subject: dto.Subject,
		Status:  status,
		Error:   errMsg,
		At:      time.Now().UTC(),
	})
}

package notifier

import "fmt"

// EmailTemplateBuilder deriva el asunto y el cuerpo del email a partir del
// DTO de negocio. Funciones puras: sin I/O, deterministas para la misma
// entrada.
type EmailTemplateBuilder struct{}

func NewEmailTemplateBuilder() *EmailTemplateBuilder {
	return &EmailTemplateBuilder{}
}

func (b *EmailTemplateBuilder) BuildMatriculaSubject(dto *MatriculaNotificationDTO) string {
	return "Estado de matrícula: " + dto.Estado
}

func (b *EmailTemplateBuilder) BuildMatriculaBody(dto *MatriculaNotificationDTO) string {
	return fmt.Sprintf("Estimado estudiante %d\nSu matrícula en la sección %d ha cambiado de estado a: %s.",
		dto.EstudianteID, dto.SeccionID, dto.Estado)
}

func (b *EmailTemplateBuilder) BuildPagoSubject(dto *PagoNotificationDTO) string {
	return fmt.Sprintf("Confirmación de pago #%d", dto.PagoID)
}

func (b *EmailTemplateBuilder) BuildPagoBody(dto *PagoNotificationDTO) string {
	return fmt.Sprintf("Estimado usuario,\nHemos recibido su pago por el monto de %s asociado a la matrícula %d.",
		dto.Monto.String(), dto.MatriculaID)
}

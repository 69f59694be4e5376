package notifier

// Nombres lógicos del pipeline de notificaciones. Contrato estable: las
// routing keys son los destinos de publicación y las colas durables lo que
// consume cada listener.
const (
	EmailRoutingKey     = "email.send"
	MatriculaRoutingKey = "matricula.created"
	PagoRoutingKey      = "pago.completed"

	EmailQueueName     = "notifications.email"
	MatriculaQueueName = "notifications.matricula"
	PagoQueueName      = "notifications.pago"
)

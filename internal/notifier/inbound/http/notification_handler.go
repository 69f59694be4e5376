package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcastanera/matriculabus/internal/notifier"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
)

// NotificationHandler expone endpoints operacionales para publicar
// notificaciones a mano contra el exchange.
type NotificationHandler struct {
	producer *notifier.NotificationProducer
}

func NewNotificationHandler(producer *notifier.NotificationProducer) *NotificationHandler {
	return &NotificationHandler{producer: producer}
}

func RegisterNotificationRoutes(router *gin.Engine, h *NotificationHandler) {
	grp := router.Group("/notifications")
	{
		grp.POST("/email", h.PublishEmail)
		grp.POST("/matricula", h.PublishMatricula)
		grp.POST("/pago", h.PublishPago)
	}
}

func (h *NotificationHandler) PublishEmail(c *gin.Context) {
	var dto notifier.EmailNotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendEmail(c.Request.Context(), &dto)
	})
}

func (h *NotificationHandler) PublishMatricula(c *gin.Context) {
	var dto notifier.MatriculaNotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendMatricula(c.Request.Context(), &dto)
	})
}

func (h *NotificationHandler) PublishPago(c *gin.Context) {
	var dto notifier.PagoNotificationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendPago(c.Request.Context(), &dto)
	})
}

func (h *NotificationHandler) publish(c *gin.Context, send func() error) {
	switch err := send(); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case errors.Is(err, bus.ErrNilEvent), errors.Is(err, bus.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

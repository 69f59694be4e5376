package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcastanera/matriculabus/internal/relay"
	"github.com/dcastanera/matriculabus/internal/shared/bus"
	sharedEvents "github.com/dcastanera/matriculabus/internal/shared/events"
)

// EventHandler expone endpoints operacionales para disparar eventos de
// usuario a mano. No es una API CRUD: existe para probar el pipeline.
type EventHandler struct {
	producer *relay.UserEventProducer
}

func NewEventHandler(producer *relay.UserEventProducer) *EventHandler {
	return &EventHandler{producer: producer}
}

func RegisterEventRoutes(router *gin.Engine, h *EventHandler) {
	grp := router.Group("/events")
	{
		grp.POST("/user-created", h.PublishUserCreated)
		grp.POST("/user-updated", h.PublishUserUpdated)
		grp.POST("/user-deleted", h.PublishUserDeleted)
	}
}

func (h *EventHandler) PublishUserCreated(c *gin.Context) {
	var event sharedEvents.UserCreatedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendUserCreated(c.Request.Context(), &event)
	})
}

func (h *EventHandler) PublishUserUpdated(c *gin.Context) {
	var event sharedEvents.UserUpdatedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendUserUpdated(c.Request.Context(), &event)
	})
}

func (h *EventHandler) PublishUserDeleted(c *gin.Context) {
	var event sharedEvents.UserDeletedEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publish(c, func() error {
		return h.producer.SendUserDeleted(c.Request.Context(), &event)
	})
}

func (h *EventHandler) publish(c *gin.Context, send func() error) {
	switch err := send(); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case errors.Is(err, bus.ErrNilEvent), errors.Is(err, bus.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"presence-chat/internal/events"
	"presence-chat/internal/middleware"
	"presence-chat/internal/models"
	"presence-chat/internal/repositories"
	"presence-chat/internal/validation"
)

// ParticipantHandler manages the participant registry endpoints.
type ParticipantHandler struct {
	participants repositories.ParticipantRepository
	emitter      *events.Emitter
}

// NewParticipantHandler builds a ParticipantHandler.
func NewParticipantHandler(participants repositories.ParticipantRepository, emitter *events.Emitter) *ParticipantHandler {
	return &ParticipantHandler{
		participants: participants,
		emitter:      emitter,
	}
}

// Register creates a participant and announces the join to everyone.
func (h *ParticipantHandler) Register(c *gin.Context) {
	var payload validation.ParticipantPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	payload = payload.Sanitized()
	if err := validation.Check(payload); err != nil {
		respondValidation(c, err)
		return
	}

	participant := models.Participant{Name: payload.Name, LastSeen: time.Now().UnixMilli()}
	err := h.participants.Create(c.Request.Context(), participant.Name, participant.LastSeen)
	if err != nil {
		if errors.Is(err, repositories.ErrNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "name already in use"})
			return
		}
		log.Printf("register participant failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register participant"})
		return
	}

	if _, err := h.emitter.Append(c.Request.Context(), participant.Name, models.BroadcastTarget, events.JoinText, models.KindStatus); err != nil {
		log.Printf("join event for %q failed: %v", participant.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record join"})
		return
	}

	c.JSON(http.StatusCreated, participant)
}

// List returns every currently-registered participant.
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.participants.List(c.Request.Context())
	if err != nil {
		log.Printf("list participants failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load participants"})
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	c.JSON(http.StatusOK, participants)
}

// Heartbeat advances the requester's last-seen timestamp.
func (h *ParticipantHandler) Heartbeat(c *gin.Context) {
	user := c.GetString(middleware.UserContextKey)

	err := h.participants.Touch(c.Request.Context(), user, time.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
			return
		}
		log.Printf("heartbeat for %q failed: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update presence"})
		return
	}

	c.Status(http.StatusOK)
}

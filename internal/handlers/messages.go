package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"presence-chat/internal/events"
	"presence-chat/internal/middleware"
	"presence-chat/internal/models"
	"presence-chat/internal/repositories"
	"presence-chat/internal/validation"
)

const defaultMessageLimit = 100

// MessageHandler manages the message store endpoints.
type MessageHandler struct {
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
	emitter      *events.Emitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(participants repositories.ParticipantRepository, messages repositories.MessageRepository, emitter *events.Emitter) *MessageHandler {
	return &MessageHandler{
		participants: participants,
		messages:     messages,
		emitter:      emitter,
	}
}

// Post stores a message or private message from the requester.
func (h *MessageHandler) Post(c *gin.Context) {
	user := c.GetString(middleware.UserContextKey)

	var payload validation.MessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	payload = payload.Sanitized()
	if err := validation.Check(payload); err != nil {
		respondValidation(c, err)
		return
	}

	registered, err := h.participants.Exists(c.Request.Context(), user)
	if err != nil {
		log.Printf("sender lookup for %q failed: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify sender"})
		return
	}
	if !registered {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sender is not registered"})
		return
	}

	if payload.To != models.BroadcastTarget {
		known, err := h.participants.Exists(c.Request.Context(), payload.To)
		if err != nil {
			log.Printf("recipient lookup for %q failed: %v", payload.To, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify recipient"})
			return
		}
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipient not found"})
			return
		}
	}

	event, err := h.emitter.Append(c.Request.Context(), user, payload.To, payload.Text, payload.Kind)
	if err != nil {
		log.Printf("store message from %q failed: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// List returns the most recent events visible to the requester, oldest first.
func (h *MessageHandler) List(c *gin.Context) {
	user := c.GetString(middleware.UserContextKey)

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"limit must be a positive integer"}})
			return
		}
		limit = parsed
	}

	registered, err := h.participants.Exists(c.Request.Context(), user)
	if err != nil {
		log.Printf("requester lookup for %q failed: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify requester"})
		return
	}
	if !registered {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "requester is not registered"})
		return
	}

	msgs, err := h.messages.ListVisibleTo(c.Request.Context(), user, limit)
	if err != nil {
		log.Printf("list messages for %q failed: %v", user, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.ChatEvent{}
	}
	c.JSON(http.StatusOK, msgs)
}

// Update replaces the text of the requester's own message.
func (h *MessageHandler) Update(c *gin.Context) {
	user := c.GetString(middleware.UserContextKey)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var payload validation.MessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	payload = payload.Sanitized()
	if err := validation.Check(payload); err != nil {
		respondValidation(c, err)
		return
	}

	event, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("load message %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}
	if !canMutate(event, user) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "message does not belong to requester"})
		return
	}

	if err := h.messages.UpdateText(c.Request.Context(), id, payload.Text); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("update message %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
		return
	}

	c.Status(http.StatusOK)
}

// Delete removes the requester's own message permanently.
func (h *MessageHandler) Delete(c *gin.Context) {
	user := c.GetString(middleware.UserContextKey)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	event, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("load message %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load message"})
		return
	}
	if !canMutate(event, user) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "message does not belong to requester"})
		return
	}

	if err := h.messages.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("delete message %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	c.Status(http.StatusOK)
}

// canMutate is the one authorization rule for message mutation: the
// requester's identity string must equal the event's from field, and status
// events are immutable for everyone.
func canMutate(event models.ChatEvent, user string) bool {
	return event.Kind != models.KindStatus && event.From == user
}

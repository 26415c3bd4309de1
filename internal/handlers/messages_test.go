package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"presence-chat/internal/events"
	"presence-chat/internal/middleware"
	"presence-chat/internal/mocks"
	"presence-chat/internal/models"
	"presence-chat/internal/repositories"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	requireUser := middleware.RequireUser()
	r.POST("/messages", requireUser, handler.Post)
	r.GET("/messages", requireUser, handler.List)
	r.PUT("/messages/:id", requireUser, handler.Update)
	r.DELETE("/messages/:id", requireUser, handler.Delete)
	return r
}

func newMessageHandler(participantRepo *mocks.ParticipantRepositoryMock, messageRepo *mocks.MessageRepositoryMock) *MessageHandler {
	return NewMessageHandler(participantRepo, messageRepo, events.NewEmitter(messageRepo, nil, "chat.event"))
}

func TestPostBroadcastMessage(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Ana").Return(true, nil).Once()
	messageRepo.On("Insert", mock.Anything, mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.From == "Ana" && e.To == models.BroadcastTarget && e.Text == "hi" && e.Kind == models.KindMessage
	})).Return(models.ChatEvent{ID: 7, From: "Ana", To: models.BroadcastTarget, Text: "hi", Kind: models.KindMessage}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"hi","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.ChatEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 7, resp.ID)

	participantRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageUnregisteredSender(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Caio").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"hi","type":"message"}`))
	req.Header.Set("User", "Caio")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	messageRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestPostPrivateMessageRecipientNotFound(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Ana").Return(true, nil).Once()
	participantRepo.On("Exists", mock.Anything, "Bea").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Bea","text":"oi","type":"private_message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	participantRepo.AssertExpectations(t)
	messageRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestPostMessageRejectsStatusKind(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"Todos","text":"hi","type":"status"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	participantRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
	messageRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestPostMessageCollectsAllFieldErrors(t *testing.T) {
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock)))

	req := httptest.NewRequest(http.MethodPost, "/messages", bytes.NewBufferString(`{"to":"","text":"","type":"shout"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp map[string][]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp["errors"], 3)
}

func TestListMessagesDefaultLimit(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Ana").Return(true, nil).Once()
	messageRepo.On("ListVisibleTo", mock.Anything, "Ana", 100).Return([]models.ChatEvent{
		{ID: 1, From: "Ana", To: models.BroadcastTarget, Kind: models.KindStatus},
		{ID: 2, From: "Bea", To: "Ana", Kind: models.KindPrivate},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.ChatEvent
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, 1, resp[0].ID)
	assert.Equal(t, 2, resp[1].ID)

	participantRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesCustomLimit(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Ana").Return(true, nil).Once()
	messageRepo.On("ListVisibleTo", mock.Anything, "Ana", 10).Return([]models.ChatEvent{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages?limit=10", nil)
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestListMessagesInvalidLimit(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	for _, limit := range []string{"abc", "0", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/messages?limit="+limit, nil)
		req.Header.Set("User", "Ana")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "limit=%s", limit)
	}
	messageRepo.AssertNotCalled(t, "ListVisibleTo", mock.Anything, mock.Anything, mock.Anything)
}

func TestListMessagesUnregisteredRequester(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	participantRepo.On("Exists", mock.Anything, "Caio").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.Header.Set("User", "Caio")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	messageRepo.AssertNotCalled(t, "ListVisibleTo", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMessageSuccess(t *testing.T) {
	participantRepo := new(mocks.ParticipantRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(participantRepo, messageRepo))

	messageRepo.On("Get", mock.Anything, 7).Return(models.ChatEvent{ID: 7, From: "Ana", To: models.BroadcastTarget, Kind: models.KindMessage}, nil).Once()
	messageRepo.On("UpdateText", mock.Anything, 7, "edited").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/7", bytes.NewBufferString(`{"to":"Todos","text":"edited","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestUpdateMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	messageRepo.On("Get", mock.Anything, 99).Return(models.ChatEvent{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/99", bytes.NewBufferString(`{"to":"Todos","text":"edited","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMessageNotOwner(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	messageRepo.On("Get", mock.Anything, 7).Return(models.ChatEvent{ID: 7, From: "Bea", Kind: models.KindMessage}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/7", bytes.NewBufferString(`{"to":"Todos","text":"edited","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatusEventAlwaysRejected(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	// Even the event's own author cannot edit a status event.
	messageRepo.On("Get", mock.Anything, 3).Return(models.ChatEvent{ID: 3, From: "Ana", Kind: models.KindStatus}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/3", bytes.NewBufferString(`{"to":"Todos","text":"edited","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	messageRepo.AssertNotCalled(t, "UpdateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMessageInvalidID(t *testing.T) {
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), new(mocks.MessageRepositoryMock)))

	req := httptest.NewRequest(http.MethodPut, "/messages/abc", bytes.NewBufferString(`{"to":"Todos","text":"edited","type":"message"}`))
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	messageRepo.On("Get", mock.Anything, 7).Return(models.ChatEvent{ID: 7, From: "Ana", Kind: models.KindMessage}, nil).Once()
	messageRepo.On("Delete", mock.Anything, 7).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/7", nil)
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	messageRepo.On("Get", mock.Anything, 99).Return(models.ChatEvent{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/99", nil)
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteStatusEventAlwaysRejected(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	router := setupMessageRouter(newMessageHandler(new(mocks.ParticipantRepositoryMock), messageRepo))

	messageRepo.On("Get", mock.Anything, 3).Return(models.ChatEvent{ID: 3, From: "Ana", Kind: models.KindStatus}, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/3", nil)
	req.Header.Set("User", "Ana")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	messageRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

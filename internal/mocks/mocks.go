package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"presence-chat/internal/models"
	"presence-chat/internal/repositories"
)

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) Create(ctx context.Context, name string, lastSeen int64) error {
	args := m.Called(ctx, name, lastSeen)
	return args.Error(0)
}

func (m *ParticipantRepositoryMock) List(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	var list []models.Participant
	if val := args.Get(0); val != nil {
		list = val.([]models.Participant)
	}
	return list, args.Error(1)
}

func (m *ParticipantRepositoryMock) Touch(ctx context.Context, name string, lastSeen int64) error {
	args := m.Called(ctx, name, lastSeen)
	return args.Error(0)
}

func (m *ParticipantRepositoryMock) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepositoryMock) RemoveStale(ctx context.Context, cutoff int64) ([]string, error) {
	args := m.Called(ctx, cutoff)
	var names []string
	if val := args.Get(0); val != nil {
		names = val.([]string)
	}
	return names, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, event models.ChatEvent) (models.ChatEvent, error) {
	args := m.Called(ctx, event)
	var stored models.ChatEvent
	if val := args.Get(0); val != nil {
		stored = val.(models.ChatEvent)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) InsertMany(ctx context.Context, events []models.ChatEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ListVisibleTo(ctx context.Context, user string, limit int) ([]models.ChatEvent, error) {
	args := m.Called(ctx, user, limit)
	var list []models.ChatEvent
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatEvent)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, id int) (models.ChatEvent, error) {
	args := m.Called(ctx, id)
	var event models.ChatEvent
	if val := args.Get(0); val != nil {
		event = val.(models.ChatEvent)
	}
	return event, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateText(ctx context.Context, id int, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)

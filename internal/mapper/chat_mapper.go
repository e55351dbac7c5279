package mapper

import (
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Title:              s.Title,
		TitleAutoGenerated: s.TitleAutoGenerated,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Title:              s.Title,
		TitleAutoGenerated: s.TitleAutoGenerated,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:             msg.Id,
		SessionId:      msg.SessionId,
		Sender:         entity.MessageSender(msg.Sender),
		Content:        msg.Content,
		ProviderStatus: msg.ProviderStatus,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:             msg.Id,
		SessionId:      msg.SessionId,
		Sender:         string(msg.Sender),
		Content:        msg.Content,
		ProviderStatus: msg.ProviderStatus,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

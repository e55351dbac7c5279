package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/ai"
	"career-counselor-be/pkg/ai/completion"
	"career-counselor-be/pkg/events"
)

// historyWindow is how many trailing messages are forwarded to the
// completion provider.
const historyWindow = 15

const maxTitleLength = 255

type IChatService interface {
	ListSessions(ctx context.Context, userId uint, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error)
	GetSession(ctx context.Context, userId, sessionId uint) (*dto.SessionResponse, error)
	ListMessages(ctx context.Context, userId, sessionId uint, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error)
	CreateSession(ctx context.Context, userId uint, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	AddMessage(ctx context.Context, userId, sessionId uint, req *dto.AddMessageRequest) (*dto.MessageResponse, error)
	GenerateAI(ctx context.Context, userId, sessionId uint) (*dto.GenerateAIResponse, error)
	GenerateStubbedAI(ctx context.Context, userId, sessionId uint) (*dto.GenerateAIResponse, error)
	RenameSession(ctx context.Context, userId, sessionId uint, req *dto.RenameSessionRequest) (*dto.SessionResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	adapter    *completion.Adapter
	publisher  IPublisherService
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	adapter *completion.Adapter,
	publisher IPublisherService,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		adapter:    adapter,
		publisher:  publisher,
	}
}

// loadOwnedSession fetches a session and enforces the uniform ownership
// policy: missing sessions are NotFound, somebody else's are Forbidden.
// Sessions without an owner (early schema rows) stay reachable by any
// authenticated caller.
func (cs *chatService) loadOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uint) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, serverutils.NewNotFoundError("Session not found")
	}
	if session.UserId != nil && *session.UserId != userId {
		return nil, serverutils.NewForbiddenError("Session belongs to another user")
	}
	return session, nil
}

func (cs *chatService) ListSessions(ctx context.Context, userId uint, req *dto.ListSessionsRequest) (*dto.ListSessionsResponse, error) {
	req.Normalize()
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// The same filter slice feeds both the count and the page query, so
	// the two predicates cannot drift apart.
	filters := []specification.Specification{
		specification.OwnedBy{UserID: userId},
	}
	if req.Search != "" {
		filters = append(filters, specification.TitleSearch{Query: req.Search})
	}

	total, err := uow.ChatSessionRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	pageSpecs := append(append([]specification.Specification{}, filters...),
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: req.PageSize, Offset: (req.Page - 1) * req.PageSize},
	)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, pageSpecs...)
	if err != nil {
		return nil, err
	}

	sessionIDs := make([]uint, len(sessions))
	for i, s := range sessions {
		sessionIDs[i] = s.Id
	}
	previews, err := uow.MessageRepository().FindLatestBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp := sessionToResponse(s)
		if last, ok := previews[s.Id]; ok {
			content := last.Content
			createdAt := last.CreatedAt
			resp.LastMessageContent = &content
			resp.LastMessageAt = &createdAt
		}
		responses = append(responses, resp)
	}

	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	return &dto.ListSessionsResponse{
		Sessions: responses,
		Pagination: dto.PaginationMeta{
			Page:       req.Page,
			PageSize:   req.PageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (cs *chatService) GetSession(ctx context.Context, userId, sessionId uint) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	session, err := cs.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(session), nil
}

func (cs *chatService) ListMessages(ctx context.Context, userId, sessionId uint, req *dto.ListMessagesRequest) (*dto.ListMessagesResponse, error) {
	req.Normalize()
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if _, err := cs.loadOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.BySessionID{SessionID: sessionId},
	}

	backward := req.Direction == dto.DirectionBackward
	if req.Cursor != nil {
		if backward {
			specs = append(specs, specification.IDBefore{ID: *req.Cursor})
		} else {
			specs = append(specs, specification.IDAfter{ID: *req.Cursor})
		}
	}
	specs = append(specs,
		specification.ChronologicalOrder{Desc: backward},
		specification.Limit{Limit: req.Limit},
	)

	messages, err := uow.MessageRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	// Backward pages are fetched newest-first; re-reverse so callers
	// always get chronological order.
	if backward {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	responses := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, messageToResponse(m))
	}

	// nextCursor is the boundary id of a full page: the oldest returned
	// message when walking backward, the newest when walking forward.
	var nextCursor *uint
	if len(messages) == req.Limit {
		var boundary uint
		if backward {
			boundary = messages[0].Id
		} else {
			boundary = messages[len(messages)-1].Id
		}
		nextCursor = &boundary
	}

	return &dto.ListMessagesResponse{
		Messages:   responses,
		NextCursor: nextCursor,
	}, nil
}

func (cs *chatService) CreateSession(ctx context.Context, userId uint, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	now := time.Now()

	title := ""
	autoGenerated := true
	if req.Title != nil && *req.Title != "" {
		title = *req.Title
		autoGenerated = false
	} else {
		title = fmt.Sprintf("Untitled session – %s", now.Format("1/2/2006"))
	}

	owner := userId
	session := &entity.ChatSession{
		UserId:             &owner,
		Title:              title,
		TitleAutoGenerated: autoGenerated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	cs.publishEvent(events.TypeSessionCreated, map[string]interface{}{
		"session_id": session.Id,
		"user_id":    userId,
	})

	return sessionToResponse(session), nil
}

func (cs *chatService) AddMessage(ctx context.Context, userId, sessionId uint, req *dto.AddMessageRequest) (*dto.MessageResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		SessionId: session.Id,
		Sender:    entity.MessageSender(req.Sender),
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id); err != nil {
		return nil, err
	}

	cs.publishEvent(events.TypeMessageAdded, map[string]interface{}{
		"session_id": session.Id,
		"message_id": message.Id,
		"sender":     req.Sender,
	})

	return messageToResponse(message), nil
}

func (cs *chatService) GenerateAI(ctx context.Context, userId, sessionId uint) (*dto.GenerateAIResponse, error) {
	return cs.generateReply(ctx, userId, sessionId, false)
}

// GenerateStubbedAI mirrors GenerateAI through the stub echo logic with an
// artificial 500-1000ms delay to simulate provider latency in dev.
func (cs *chatService) GenerateStubbedAI(ctx context.Context, userId, sessionId uint) (*dto.GenerateAIResponse, error) {
	delay := time.Duration(500+rand.Intn(500)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return cs.generateReply(ctx, userId, sessionId, true)
}

func (cs *chatService) generateReply(ctx context.Context, userId, sessionId uint, stubbed bool) (*dto.GenerateAIResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	history, err := cs.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	var result completion.Result
	if stubbed {
		result = stubEcho(history)
	} else {
		result = cs.adapter.Generate(ctx, history)
	}

	status := entity.ProviderStatusOK
	if result.Degraded {
		status = entity.ProviderStatusFallback
	}

	reply := &entity.Message{
		SessionId:      session.Id,
		Sender:         entity.MessageSenderAI,
		Content:        result.Text,
		ProviderStatus: status,
		CreatedAt:      time.Now(),
	}

	if err := uow.MessageRepository().Create(ctx, reply); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id); err != nil {
		return nil, err
	}
	session.UpdatedAt = time.Now()

	// One-shot auto-title. The flag only clears when a title is actually
	// applied, so a degraded reply leaves the next generation another try.
	if session.TitleAutoGenerated && !stubbed && !result.Degraded {
		if title, err := cs.adapter.Summarize(ctx, history); err == nil && title != "" {
			if len(title) > maxTitleLength {
				title = title[:maxTitleLength]
			}
			session.Title = title
			session.TitleAutoGenerated = false
			session.UpdatedAt = time.Now()
			if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
				return nil, err
			}
		}
	}

	cs.publishEvent(events.TypeAIReplyGenerated, map[string]interface{}{
		"session_id": session.Id,
		"message_id": reply.Id,
		"degraded":   result.Degraded,
		"stubbed":    stubbed,
	})

	return &dto.GenerateAIResponse{
		Message:  messageToResponse(reply),
		Session:  sessionToResponse(session),
		Degraded: result.Degraded,
	}, nil
}

func (cs *chatService) RenameSession(ctx context.Context, userId, sessionId uint, req *dto.RenameSessionRequest) (*dto.SessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := cs.loadOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	// Explicit rename always wins and permanently disables auto-titling.
	session.Title = req.Title
	session.TitleAutoGenerated = false
	session.UpdatedAt = time.Now()

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	cs.publishEvent(events.TypeSessionRenamed, map[string]interface{}{
		"session_id": session.Id,
	})

	return sessionToResponse(session), nil
}

// loadHistory returns the last historyWindow messages in chronological
// order, mapped to provider roles.
func (cs *chatService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uint) ([]ai.Message, error) {
	recent, err := uow.MessageRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.ChronologicalOrder{Desc: true},
		specification.Limit{Limit: historyWindow},
	)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		role := ai.RoleUser
		if recent[i].Sender == entity.MessageSenderAI {
			role = ai.RoleAssistant
		}
		history = append(history, ai.Message{Role: role, Content: recent[i].Content})
	}
	return history, nil
}

func stubEcho(history []ai.Message) completion.Result {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ai.RoleUser {
			return completion.Result{Text: "Echo: " + history[i].Content}
		}
	}
	return completion.Result{Text: "Hello! I'm your AI assistant (stubbed)."}
}

func (cs *chatService) publishEvent(eventType string, data map[string]interface{}) {
	if cs.publisher == nil {
		return
	}
	_ = cs.publisher.Publish(events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	})
}

func sessionToResponse(s *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:                 s.Id,
		UserId:             s.UserId,
		Title:              s.Title,
		TitleAutoGenerated: s.TitleAutoGenerated,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func messageToResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:             m.Id,
		SessionId:      m.SessionId,
		Sender:         string(m.Sender),
		Content:        m.Content,
		ProviderStatus: m.ProviderStatus,
		CreatedAt:      m.CreatedAt,
	}
}

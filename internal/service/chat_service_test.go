package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/serverutils"
	"career-counselor-be/pkg/ai"
	"career-counselor-be/pkg/ai/completion"
	"career-counselor-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (p *scriptedProvider) Complete(_ context.Context, _ []ai.Message, _ ...ai.Option) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestChatService(store *fakeStore, provider ai.Provider) (IChatService, *capturingPublisher) {
	publisher := &capturingPublisher{}
	adapter := completion.NewAdapter(provider, nopLogger{})
	svc := NewChatService(newFakeFactory(store), adapter, publisher)
	return svc, publisher
}

func seedSession(t *testing.T, svc IChatService, userId uint, title *string) *dto.SessionResponse {
	t.Helper()
	res, err := svc.CreateSession(context.Background(), userId, &dto.CreateSessionRequest{Title: title})
	require.NoError(t, err)
	return res
}

func strPtr(s string) *string { return &s }

func TestCreateSessionDefaultTitle(t *testing.T) {
	svc, publisher := newTestChatService(newFakeStore(), &scriptedProvider{reply: "hi"})

	res := seedSession(t, svc, 1, nil)

	wantPrefix := "Untitled session – "
	assert.True(t, strings.HasPrefix(res.Title, wantPrefix), "title %q", res.Title)
	assert.Equal(t, time.Now().Format("1/2/2006"), strings.TrimPrefix(res.Title, wantPrefix))
	assert.True(t, res.TitleAutoGenerated)

	named := seedSession(t, svc, 1, strPtr("Interview prep"))
	assert.Equal(t, "Interview prep", named.Title)
	assert.False(t, named.TitleAutoGenerated)

	assert.Len(t, publisher.byType(events.TypeSessionCreated), 2)
}

func TestListSessionsPaginationAndPreviews(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		s := seedSession(t, svc, 1, strPtr(fmt.Sprintf("Session %02d", i)))
		_, err := svc.AddMessage(ctx, 1, s.Id, &dto.AddMessageRequest{
			Content: fmt.Sprintf("hello from %02d", i),
			Sender:  "user",
		})
		require.NoError(t, err)
	}
	// A session owned by somebody else must never leak into the list.
	seedSession(t, svc, 2, strPtr("Other user"))

	res, err := svc.ListSessions(ctx, 1, &dto.ListSessionsRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.Len(t, res.Sessions, 10)

	// Most recently touched first, preview attached.
	first := res.Sessions[0]
	assert.Equal(t, "Session 24", first.Title)
	require.NotNil(t, first.LastMessageContent)
	assert.Equal(t, "hello from 24", *first.LastMessageContent)
	assert.NotNil(t, first.LastMessageAt)

	last, err := svc.ListSessions(ctx, 1, &dto.ListSessionsRequest{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Sessions, 5)

	empty, err := svc.ListSessions(ctx, 1, &dto.ListSessionsRequest{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, empty.Sessions)
	assert.Equal(t, 3, empty.Pagination.TotalPages)
}

func TestListSessionsSearch(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	seedSession(t, svc, 1, strPtr("Resume review"))
	seedSession(t, svc, 1, strPtr("Salary negotiation"))
	seedSession(t, svc, 1, strPtr("Review my cover letter"))

	res, err := svc.ListSessions(ctx, 1, &dto.ListSessionsRequest{Search: "review"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Pagination.Total)
	assert.Len(t, res.Sessions, 2)
	assert.Equal(t, 1, res.Pagination.TotalPages)
}

func TestListSessionsEmptyTotalPages(t *testing.T) {
	svc, _ := newTestChatService(newFakeStore(), &scriptedProvider{reply: "hi"})

	res, err := svc.ListSessions(context.Background(), 1, &dto.ListSessionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Pagination.Total)
	assert.Equal(t, 1, res.Pagination.TotalPages)
}

func TestOwnershipPolicy(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	owned := seedSession(t, svc, 1, strPtr("Mine"))

	// Missing session is NotFound.
	_, err := svc.GetSession(ctx, 1, 999)
	appErr, ok := serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)

	// Another user's session is Forbidden, on every operation.
	_, err = svc.GetSession(ctx, 2, owned.Id)
	appErr, ok = serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)

	_, err = svc.AddMessage(ctx, 2, owned.Id, &dto.AddMessageRequest{Content: "x", Sender: "user"})
	appErr, ok = serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)

	_, err = svc.RenameSession(ctx, 2, owned.Id, &dto.RenameSessionRequest{Title: "stolen"})
	appErr, ok = serverutils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 403, appErr.Code)

	// Sessions without an owner stay reachable by any authenticated user.
	store.mu.Lock()
	store.sessions = append(store.sessions, &entity.ChatSession{
		Id: 50, Title: "Legacy", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	store.mu.Unlock()

	res, err := svc.GetSession(ctx, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, "Legacy", res.Title)
}

func TestAddMessageTouchesSession(t *testing.T) {
	store := newFakeStore()
	svc, publisher := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	session := seedSession(t, svc, 1, strPtr("Touch me"))
	before := session.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	msg, err := svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{Content: "hello", Sender: "user"})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "user", msg.Sender)
	assert.Empty(t, msg.ProviderStatus)

	after, err := svc.GetSession(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before))

	assert.Len(t, publisher.byType(events.TypeMessageAdded), 1)
}

func TestListMessagesBackwardWalk(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	session := seedSession(t, svc, 1, strPtr("History"))
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		store.mu.Lock()
		store.messages = append(store.messages, &entity.Message{
			Id:        store.nextMessageID,
			SessionId: session.Id,
			Sender:    entity.MessageSenderUser,
			Content:   fmt.Sprintf("m%02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		store.nextMessageID++
		store.mu.Unlock()
	}

	// Walk backward from the newest page; pages concatenated in reverse
	// must reconstruct the full history with no gaps or duplicates.
	var collected []string
	var cursor *uint
	for {
		res, err := svc.ListMessages(ctx, 1, session.Id, &dto.ListMessagesRequest{
			Limit:     10,
			Cursor:    cursor,
			Direction: dto.DirectionBackward,
		})
		require.NoError(t, err)

		// Each page itself is chronological.
		for i := 1; i < len(res.Messages); i++ {
			assert.Less(t, res.Messages[i-1].Id, res.Messages[i].Id)
		}

		page := make([]string, 0, len(res.Messages))
		for _, m := range res.Messages {
			page = append(page, m.Content)
		}
		collected = append(page, collected...)

		if res.NextCursor == nil {
			break
		}
		cursor = res.NextCursor
	}

	require.Len(t, collected, 25)
	for i, content := range collected {
		assert.Equal(t, fmt.Sprintf("m%02d", i), content)
	}
}

func TestListMessagesForwardCursor(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	session := seedSession(t, svc, 1, strPtr("Forward"))
	for i := 0; i < 5; i++ {
		_, err := svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{
			Content: fmt.Sprintf("m%d", i),
			Sender:  "user",
		})
		require.NoError(t, err)
	}

	first, err := svc.ListMessages(ctx, 1, session.Id, &dto.ListMessagesRequest{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Messages, 3)
	require.NotNil(t, first.NextCursor)

	second, err := svc.ListMessages(ctx, 1, session.Id, &dto.ListMessagesRequest{
		Limit:  3,
		Cursor: first.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, second.Messages, 2)
	assert.Nil(t, second.NextCursor)
	assert.Equal(t, "m3", second.Messages[0].Content)
	assert.Equal(t, "m4", second.Messages[1].Content)
}

func TestGenerateAIAutoTitleOneShot(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{reply: "Career Path Advice"}
	svc, publisher := newTestChatService(store, provider)
	ctx := context.Background()

	session := seedSession(t, svc, 1, nil)
	require.True(t, session.TitleAutoGenerated)

	_, err := svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{
		Content: "How do I switch to data engineering?",
		Sender:  "user",
	})
	require.NoError(t, err)

	res, err := svc.GenerateAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "Career Path Advice", res.Message.Content)
	assert.Equal(t, entity.ProviderStatusOK, res.Message.ProviderStatus)
	assert.Equal(t, "Career Path Advice", res.Session.Title)
	assert.False(t, res.Session.TitleAutoGenerated)

	// A later rename must survive further generations.
	_, err = svc.RenameSession(ctx, 1, session.Id, &dto.RenameSessionRequest{Title: "My plan"})
	require.NoError(t, err)

	provider.reply = "Something else entirely"
	res2, err := svc.GenerateAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "My plan", res2.Session.Title)

	generated := publisher.byType(events.TypeAIReplyGenerated)
	require.Len(t, generated, 2)
	assert.Equal(t, false, generated[0].Data["degraded"])
}

func TestGenerateAIDegradedKeepsAutoTitleFlag(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{err: errors.New("429 too many requests")}
	svc, publisher := newTestChatService(store, provider)
	ctx := context.Background()

	session := seedSession(t, svc, 1, nil)
	_, err := svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{Content: "hi", Sender: "user"})
	require.NoError(t, err)

	res, err := svc.GenerateAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, entity.ProviderStatusFallback, res.Message.ProviderStatus)
	assert.Contains(t, res.Message.Content, "rate limit")
	// Title untouched, flag still set for the next attempt.
	assert.True(t, res.Session.TitleAutoGenerated)

	generated := publisher.byType(events.TypeAIReplyGenerated)
	require.Len(t, generated, 1)
	assert.Equal(t, true, generated[0].Data["degraded"])

	// Provider recovers: the next generation titles the session.
	provider.err = nil
	provider.reply = "Salary Negotiation Tips"
	res2, err := svc.GenerateAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.False(t, res2.Degraded)
	assert.Equal(t, "Salary Negotiation Tips", res2.Session.Title)
	assert.False(t, res2.Session.TitleAutoGenerated)
}

func TestGenerateStubbedAIEchoesLastUserMessage(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "unused"})
	ctx := context.Background()

	session := seedSession(t, svc, 1, nil)

	// No user message yet: greeting.
	res, err := svc.GenerateStubbedAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "Hello! I'm your AI assistant (stubbed).", res.Message.Content)

	_, err = svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{Content: "ping", Sender: "user"})
	require.NoError(t, err)

	start := time.Now()
	res, err = svc.GenerateStubbedAI(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.Equal(t, "Echo: ping", res.Message.Content)
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)

	// Stub replies never consume the auto-title shot.
	after, err := svc.GetSession(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.True(t, after.TitleAutoGenerated)
}

func TestGenerateStubbedAIRespectsContext(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "unused"})

	session := seedSession(t, svc, 1, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.GenerateStubbedAI(ctx, 1, session.Id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEndToEndConversation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestChatService(store, &scriptedProvider{reply: "Software engineering suits you."})
	ctx := context.Background()

	session := seedSession(t, svc, 1, nil)
	assert.Equal(t, "Untitled session – "+time.Now().Format("1/2/2006"), session.Title)

	_, err := svc.AddMessage(ctx, 1, session.Id, &dto.AddMessageRequest{
		Content: "What career should I pursue?",
		Sender:  "user",
	})
	require.NoError(t, err)

	msgs, err := svc.ListMessages(ctx, 1, session.Id, &dto.ListMessagesRequest{})
	require.NoError(t, err)
	require.Len(t, msgs.Messages, 1)
	assert.Equal(t, "user", msgs.Messages[0].Sender)

	beforeGenerate, err := svc.GetSession(ctx, 1, session.Id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.GenerateAI(ctx, 1, session.Id)
	require.NoError(t, err)

	msgs, err = svc.ListMessages(ctx, 1, session.Id, &dto.ListMessagesRequest{})
	require.NoError(t, err)
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "ai", msgs.Messages[1].Sender)

	after, err := svc.GetSession(ctx, 1, session.Id)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(beforeGenerate.UpdatedAt))
}

func TestRenameSession(t *testing.T) {
	store := newFakeStore()
	svc, publisher := newTestChatService(store, &scriptedProvider{reply: "hi"})
	ctx := context.Background()

	session := seedSession(t, svc, 1, nil)

	res, err := svc.RenameSession(ctx, 1, session.Id, &dto.RenameSessionRequest{Title: "Portfolio review"})
	require.NoError(t, err)
	assert.Equal(t, "Portfolio review", res.Title)
	assert.False(t, res.TitleAutoGenerated)
	assert.True(t, res.UpdatedAt.After(session.UpdatedAt) || res.UpdatedAt.Equal(session.UpdatedAt))

	assert.Len(t, publisher.byType(events.TypeSessionRenamed), 1)
}

package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/contract"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/events"
)

// In-memory repositories interpreting the same specifications the GORM
// implementations translate to SQL.

type fakeStore struct {
	mu            sync.Mutex
	users         []*entity.User
	sessions      []*entity.ChatSession
	messages      []*entity.Message
	nextUserID    uint
	nextSessionID uint
	nextMessageID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextUserID: 1, nextSessionID: 1, nextMessageID: 1}
}

type fakeUserRepo struct{ store *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.Id = r.store.nextUserID
	r.store.nextUserID++
	clone := *user
	r.store.users = append(r.store.users, &clone)
	return nil
}

func (r *fakeUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if userMatches(u, specs) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, u := range r.store.users {
		if userMatches(u, specs) {
			n++
		}
	}
	return n, nil
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != s.Email {
				return false
			}
		}
	}
	return true
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	session.Id = r.store.nextSessionID
	r.store.nextSessionID++
	clone := *session
	r.store.sessions = append(r.store.sessions, &clone)
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, s := range r.store.sessions {
		if s.Id == session.Id {
			clone := *session
			r.store.sessions[i] = &clone
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.Id == id {
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*entity.ChatSession
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			clone := *s
			matched = append(matched, &clone)
		}
	}

	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "updated_at" {
			sort.SliceStable(matched, func(i, j int) bool {
				if order.Desc {
					return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
				}
				return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
			})
		}
	}
	for _, spec := range specs {
		if page, ok := spec.(specification.Pagination); ok {
			if page.Offset >= len(matched) {
				return nil, nil
			}
			matched = matched[page.Offset:]
			if page.Limit < len(matched) {
				matched = matched[:page.Limit]
			}
		}
	}
	return matched, nil
}

func (r *fakeSessionRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			n++
		}
	}
	return n, nil
}

func sessionMatches(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.OwnedBy:
			if s.UserId == nil || *s.UserId != sp.UserID {
				return false
			}
		case specification.TitleSearch:
			if !strings.Contains(strings.ToLower(s.Title), strings.ToLower(sp.Query)) {
				return false
			}
		}
	}
	return true
}

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Create(_ context.Context, message *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	message.Id = r.store.nextMessageID
	r.store.nextMessageID++
	clone := *message
	r.store.messages = append(r.store.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matched []*entity.Message
	for _, m := range r.store.messages {
		if messageMatches(m, specs) {
			clone := *m
			matched = append(matched, &clone)
		}
	}

	for _, spec := range specs {
		if order, ok := spec.(specification.ChronologicalOrder); ok {
			sort.SliceStable(matched, func(i, j int) bool {
				a, b := matched[i], matched[j]
				if !a.CreatedAt.Equal(b.CreatedAt) {
					if order.Desc {
						return a.CreatedAt.After(b.CreatedAt)
					}
					return a.CreatedAt.Before(b.CreatedAt)
				}
				if order.Desc {
					return a.Id > b.Id
				}
				return a.Id < b.Id
			})
		}
	}
	for _, spec := range specs {
		if limit, ok := spec.(specification.Limit); ok && limit.Limit < len(matched) {
			matched = matched[:limit.Limit]
		}
	}
	return matched, nil
}

func (r *fakeMessageRepo) FindLatestBySessionIDs(_ context.Context, sessionIDs []uint) (map[uint]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	wanted := make(map[uint]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}

	latest := make(map[uint]*entity.Message)
	for _, m := range r.store.messages {
		if !wanted[m.SessionId] {
			continue
		}
		current, ok := latest[m.SessionId]
		if !ok || m.CreatedAt.After(current.CreatedAt) ||
			(m.CreatedAt.Equal(current.CreatedAt) && m.Id > current.Id) {
			clone := *m
			latest[m.SessionId] = &clone
		}
	}
	return latest, nil
}

func (r *fakeMessageRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, m := range r.store.messages {
		if messageMatches(m, specs) {
			n++
		}
	}
	return n, nil
}

func messageMatches(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.BySessionID:
			if m.SessionId != sp.SessionID {
				return false
			}
		case specification.IDAfter:
			if m.Id <= sp.ID {
				return false
			}
		case specification.IDBefore:
			if m.Id >= sp.ID {
				return false
			}
		}
	}
	return true
}

type fakeUnitOfWork struct {
	users    contract.UserRepository
	sessions contract.ChatSessionRepository
	messages contract.MessageRepository
}

func (u *fakeUnitOfWork) Begin(_ context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                 { return nil }
func (u *fakeUnitOfWork) Rollback() error               { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return u.users
}

func (u *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return u.sessions
}

func (u *fakeUnitOfWork) MessageRepository() contract.MessageRepository {
	return u.messages
}

type fakeFactory struct{ uow unitofwork.UnitOfWork }

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newFakeFactory(store *fakeStore) unitofwork.RepositoryFactory {
	return &fakeFactory{uow: &fakeUnitOfWork{
		users:    &fakeUserRepo{store: store},
		sessions: &fakeSessionRepo{store: store},
		messages: &fakeMessageRepo{store: store},
	}}
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.BaseEvent
}

func (p *capturingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if base, ok := event.(events.BaseEvent); ok {
		p.events = append(p.events, base)
	}
	return nil
}

func (p *capturingPublisher) byType(eventType string) []events.BaseEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.BaseEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

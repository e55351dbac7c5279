package contract

import (
	"context"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/specification"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	// FindLatestBySessionIDs returns the newest message per session, for
	// the session-list previews.
	FindLatestBySessionIDs(ctx context.Context, sessionIDs []uint) (map[uint]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

package implementation

import (
	"context"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/mapper"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/repository/contract"
	"career-counselor-be/internal/repository/specification"

	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) FindLatestBySessionIDs(ctx context.Context, sessionIDs []uint) (map[uint]*entity.Message, error) {
	result := make(map[uint]*entity.Message, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	var models []*model.Message
	err := r.db.WithContext(ctx).
		Where("session_id IN ?", sessionIDs).
		Order("session_id ASC, created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	// Rows arrive newest-first within each session; keep the first one seen.
	for _, m := range models {
		if _, ok := result[m.SessionId]; !ok {
			result[m.SessionId] = r.mapper.MessageToEntity(m)
		}
	}
	return result, nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

package implementation

import (
	"context"
	"errors"

	"ai-mentor-be/internal/mapper"
	"ai-mentor-be/internal/model"
	"ai-mentor-be/internal/repository/contract"
	"ai-mentor-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewSessionRepository(db *gorm.DB) contract.SessionRepository {
	return &SessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *SessionRepositoryImpl) Save(ctx context.Context, session *store.Session) error {
	m, err := r.mapper.ToModel(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(m).Error
}

func (r *SessionRepositoryImpl) FindById(ctx context.Context, id string) (*store.Session, error) {
	var m model.MentorSession
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToSession(&m)
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.MentorSession{}, "id = ?", id).Error
}

func (r *SessionRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MentorSession{}).Count(&count).Error
	return count, err
}

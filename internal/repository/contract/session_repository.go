package contract

import (
	"context"

	"ai-mentor-be/pkg/store"
)

type SessionRepository interface {
	Save(ctx context.Context, session *store.Session) error
	FindById(ctx context.Context, id string) (*store.Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

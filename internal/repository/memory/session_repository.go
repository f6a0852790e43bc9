package memory

import (
	"context"
	"time"

	"ai-mentor-be/internal/repository/contract"
	"ai-mentor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process memory. Used when no database
// connection is configured; sessions then live for the cache TTL only.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() contract.SessionRepository {
	// Sessions idle for 24h are dropped; the janitor sweeps hourly.
	return &SessionRepository{
		cache: cache.New(24*time.Hour, 1*time.Hour),
	}
}

func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) FindById(ctx context.Context, id string) (*store.Session, error) {
	if x, found := r.cache.Get(id); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.cache.ItemCount()), nil
}

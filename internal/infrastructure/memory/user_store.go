package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/market-hub/market-hub/internal/domain/lifecycle"
	"github.com/market-hub/market-hub/internal/domain/user"
)

// UserStore implements user.Repository in memory.
type UserStore struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]*user.User
	nextID int64
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{rows: map[uuid.UUID]*user.User{}}
}

func (s *UserStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u.ID = s.nextID
	copied := *u
	s.rows[u.UserID] = &copied
	return nil
}

func (s *UserStore) GetByID(_ context.Context, userID uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *UserStore) List(_ context.Context, limit, offset int) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*user.User, 0, len(s.rows))
	for _, u := range s.rows {
		copied := *u
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *UserStore) SetRestrictedOverride(_ context.Context, userID uuid.UUID, restricted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	u.RestrictedOverride = restricted
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *UserStore) SetAdminFlags(_ context.Context, userID uuid.UUID, flags float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[userID]
	if !ok {
		return lifecycle.ErrNotFound
	}
	u.AdminFlags = flags
	u.UpdatedAt = time.Now().UTC()
	return nil
}

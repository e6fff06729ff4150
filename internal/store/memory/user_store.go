package memory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/store"
)

// userStore is the UserStore view over the shared in-memory state.
type userStore struct {
	m *Store

	// lockHeld marks views built inside Run, whose callback already
	// holds the write lock.
	lockHeld bool
}

var _ store.UserStore = (*userStore)(nil)

func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if err := user.Validate(); err != nil {
		return err
	}

	email := strings.ToLower(user.Email)
	if _, exists := s.m.byEmail[email]; exists {
		return store.ErrEmailExists
	}

	copied := *user
	s.m.users[user.ID] = &copied
	s.m.byEmail[email] = user.ID
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	user, ok := s.m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	id, ok := s.m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *s.m.users[id]
	return &copied, nil
}

// WithTx is a no-op for the memory backend; its atomic scope is Run.
func (s *userStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// Package memory provides in-memory implementations of the store
// interfaces. They back local development (no database configured) and
// tests; data does not survive a process restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/store"
)

// Store holds all in-memory state behind a single RWMutex and hands out
// per-entity views implementing the store interfaces. Run serializes its
// callback behind the write lock, which gives batch operations the same
// all-or-nothing visibility to other goroutines that a database
// transaction would.
type Store struct {
	mu sync.RWMutex

	users   map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID

	decks     map[uuid.UUID]*domain.Deck
	deckOrder []uuid.UUID

	cards     map[uuid.UUID]*domain.Card
	cardOrder []uuid.UUID

	reviews     map[uuid.UUID]*domain.ReviewState // keyed by card ID
	reviewOrder []uuid.UUID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
		decks:   make(map[uuid.UUID]*domain.Deck),
		cards:   make(map[uuid.UUID]*domain.Card),
		reviews: make(map[uuid.UUID]*domain.ReviewState),
	}
}

// Users returns the UserStore view of this store.
func (m *Store) Users() store.UserStore { return &userStore{m: m} }

// Decks returns the DeckStore view of this store.
func (m *Store) Decks() store.DeckStore { return &deckStore{m: m} }

// Cards returns the CardStore view of this store.
func (m *Store) Cards() store.CardStore { return &cardStore{m: m} }

// Reviews returns the ReviewStateStore view of this store.
func (m *Store) Reviews() store.ReviewStateStore { return &reviewStore{m: m} }

// Ensure Store implements the transaction runner interface.
var _ store.TxRunner = (*Store)(nil)

// Run implements store.TxRunner by serializing the callback behind the
// write lock. The memory backend has no rollback; atomicity here means no
// other goroutine observes intermediate state, which is sufficient for the
// single-interactive-user access pattern this backend serves.
func (m *Store) Run(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// These views carry lockHeld so nested store calls from inside the
	// callback do not re-lock. Views handed out elsewhere keep locking,
	// so concurrent callers block until the callback returns.
	return fn(ctx, store.Stores{
		Users:   &userStore{m: m, lockHeld: true},
		Decks:   &deckStore{m: m, lockHeld: true},
		Cards:   &cardStore{m: m, lockHeld: true},
		Reviews: &reviewStore{m: m, lockHeld: true},
	})
}

// lock acquires the write lock. held is true only on the views Run builds
// for its callback, which already runs under the write lock.
func (m *Store) lock(held bool) func() {
	if held {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// rlock acquires the read lock, with the same held contract as lock.
func (m *Store) rlock(held bool) func() {
	if held {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

// removeID deletes the first occurrence of id from order, preserving the
// relative order of the rest.
func removeID(order []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range order {
		if existing == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

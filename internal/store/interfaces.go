// Package store provides abstractions and implementations for data
// persistence. The interfaces here are implemented by the postgres package
// for durable storage and by the memory package for local development and
// tests.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if a user with the same email already exists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// WithTx returns a UserStore bound to the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck to the store.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser returns all decks owned by the given user, in creation order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// Delete removes a deck and, by cascade, its cards and their review
	// states. Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DeckStore bound to the provided transaction.
	WithTx(tx *sql.Tx) DeckStore
}

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves multiple cards to the store. Cards from one
	// generation batch are inserted together; run this inside a transaction
	// so a failure leaves no partial batch behind.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns all cards in the given deck, in creation order.
	// Creation order preserves the ordering the generator produced.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// ListByUser returns all cards owned by the given user, in creation order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// UpdateText modifies an existing card's question and answer.
	// Returns ErrCardNotFound if the card does not exist and
	// ErrInvalidEntity if the new text fails domain validation.
	UpdateText(ctx context.Context, id uuid.UUID, question, answer string) error

	// Delete removes a card from the store by its ID. Associated review
	// state is removed by cascade.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountCreatedSince returns how many cards the user has created at or
	// after the given time. Used to enforce the daily generation quota.
	CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)

	// WithTx returns a CardStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}

// ReviewStateStore defines the interface for review state persistence.
// Absence of a row means the card is not enrolled for study.
type ReviewStateStore interface {
	// Create saves a new review state entry.
	// Returns ErrDuplicate if the card is already enrolled.
	Create(ctx context.Context, state *domain.ReviewState) error

	// Get retrieves the review state for the given user and card.
	// Returns ErrReviewStateNotFound if the card is not enrolled.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error)

	// ListDue returns every enrolled card of the user whose next review
	// date component is on or before now's date component. The comparison
	// is date-granular: a card due at any point today remains due all day.
	// Results are in enrollment order.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.ReviewState, error)

	// Update modifies an existing review state entry.
	// Returns ErrReviewStateNotFound if the entry does not exist.
	Update(ctx context.Context, state *domain.ReviewState) error

	// WithTx returns a ReviewStateStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ReviewStateStore
}

// Stores bundles every store interface sharing one atomic scope, as handed
// to a TxRunner callback.
type Stores struct {
	Users   UserStore
	Decks   DeckStore
	Cards   CardStore
	Reviews ReviewStateStore
}

// TxRunner executes a function against a set of stores inside a single
// atomic scope. The postgres implementation opens a database transaction
// and rebinds the stores to it; the memory implementation serializes
// callers behind its mutex. Services depend on this interface so they stay
// agnostic to the backend.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

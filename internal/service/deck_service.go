package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/store"
)

// DeckService provides deck management operations.
type DeckService interface {
	// CreateDeck creates an empty deck for the user.
	CreateDeck(ctx context.Context, userID uuid.UUID, name string) (*domain.Deck, error)

	// GetDeck retrieves a deck by ID.
	// Returns ErrNotOwned if the deck belongs to a different user.
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error)

	// ListDecks returns all of the user's decks in creation order.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// ListDeckCards returns the cards of a deck in creation order.
	// Returns ErrNotOwned if the deck belongs to a different user.
	ListDeckCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error)

	// DeleteDeck removes a deck along with its cards and review states.
	// Returns ErrNotOwned if the deck belongs to a different user.
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error
}

// deckServiceImpl implements the DeckService interface.
type deckServiceImpl struct {
	stores   store.Stores
	txRunner store.TxRunner
	logger   *slog.Logger
}

// NewDeckService creates a new DeckService.
func NewDeckService(stores store.Stores, txRunner store.TxRunner, logger *slog.Logger) DeckService {
	if logger == nil {
		logger = slog.Default()
	}

	return &deckServiceImpl{
		stores:   stores,
		txRunner: txRunner,
		logger:   logger.With(slog.String("component", "deck_service")),
	}
}

// CreateDeck implements DeckService.CreateDeck
func (s *deckServiceImpl) CreateDeck(ctx context.Context, userID uuid.UUID, name string) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(userID, name)
	if err != nil {
		return nil, err
	}

	if err := s.stores.Decks.Create(ctx, deck); err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

// GetDeck implements DeckService.GetDeck
func (s *deckServiceImpl) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.stores.Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if deck.UserID != userID {
		return nil, ErrNotOwned
	}

	return deck, nil
}

// ListDecks implements DeckService.ListDecks
func (s *deckServiceImpl) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	return s.stores.Decks.ListByUser(ctx, userID)
}

// ListDeckCards implements DeckService.ListDeckCards
func (s *deckServiceImpl) ListDeckCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Card, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	return s.stores.Cards.ListByDeck(ctx, deckID)
}

// DeleteDeck implements DeckService.DeleteDeck
func (s *deckServiceImpl) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// The ownership check and the delete run in one transaction so the deck
	// cannot change hands between them.
	err := s.txRunner.Run(ctx, func(ctx context.Context, tx store.Stores) error {
		deck, err := tx.Decks.GetByID(ctx, deckID)
		if err != nil {
			return err
		}
		if deck.UserID != userID {
			return ErrNotOwned
		}
		return tx.Decks.Delete(ctx, deckID)
	})
	if err != nil {
		return err
	}

	log.Info("deck deleted",
		slog.String("deck_id", deckID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck-api/internal/config"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/generation"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/store"
)

// CardServiceError is a custom error type for card service errors.
type CardServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for CardServiceError.
func (e *CardServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("card service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("card service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CardServiceError) Unwrap() error {
	return e.Err
}

// NewCardServiceError creates a new CardServiceError.
func NewCardServiceError(operation, message string, err error) *CardServiceError {
	return &CardServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// GenerateRequest describes one card generation call made on behalf of a user.
type GenerateRequest struct {
	// UserID is the requesting user.
	UserID uuid.UUID

	// DeckID is the deck the generated cards are created into. The deck must
	// exist and belong to the user.
	DeckID uuid.UUID

	// SourceText is the study material. Text longer than the configured
	// maximum is truncated before prompting.
	SourceText string

	// CardCount is how many cards to request. Zero selects the configured
	// default.
	CardCount int

	// Language is the language the cards should be written in. Empty lets
	// the generator follow the source material.
	Language string
}

// GenerateResult is the outcome of a successful generation call. An empty
// Cards slice means the generator responded but nothing survived validation;
// that is a valid outcome, not an error.
type GenerateResult struct {
	Deck  *domain.Deck
	Cards []*domain.Card

	// Discarded is how many generator candidates were dropped by validation.
	Discarded int
}

// CardService provides card generation and card management operations.
type CardService interface {
	// GenerateCards produces flashcards from source text and persists them
	// into the requested deck. All cards are enrolled for study atomically
	// with their creation.
	// Returns ErrDailyLimitReached if the user's quota is exhausted and
	// ErrNotOwned if the deck belongs to a different user. A generator
	// response with zero usable cards yields an empty result, not an error.
	GenerateCards(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// GetCard retrieves a card by its ID.
	// Returns ErrNotOwned if the card belongs to a different user.
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)

	// UpdateCardText edits a card's question and answer.
	// Returns ErrNotOwned if the card belongs to a different user.
	UpdateCardText(ctx context.Context, userID, cardID uuid.UUID, question, answer string) (*domain.Card, error)

	// DeleteCard removes a card and its review state.
	// Returns ErrNotOwned if the card belongs to a different user.
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
}

// cardServiceImpl implements the CardService interface.
type cardServiceImpl struct {
	stores    store.Stores
	txRunner  store.TxRunner
	generator generation.Generator
	cfg       config.GenerationConfig
	logger    *slog.Logger
	timeFunc  func() time.Time
}

// NewCardService creates a new CardService.
// It returns an error if any of the required dependencies are nil.
func NewCardService(
	stores store.Stores,
	txRunner store.TxRunner,
	generator generation.Generator,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) (CardService, error) {
	if stores.Users == nil || stores.Decks == nil || stores.Cards == nil || stores.Reviews == nil {
		return nil, errors.New("stores must be fully populated")
	}
	if txRunner == nil {
		return nil, errors.New("txRunner cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &cardServiceImpl{
		stores:    stores,
		txRunner:  txRunner,
		generator: generator,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "card_service")),
		timeFunc:  time.Now,
	}, nil
}

// GenerateCards implements CardService.GenerateCards
func (s *cardServiceImpl) GenerateCards(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.stores.Users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, NewCardServiceError("generate_cards", "failed to load user", err)
	}

	deck, err := s.stores.Decks.GetByID(ctx, req.DeckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != req.UserID {
		return nil, ErrNotOwned
	}

	count := req.CardCount
	if count <= 0 {
		count = s.cfg.DefaultCardCount
	}

	// Quota check. Premium users bypass the daily limit; for everyone else
	// the requested count is capped to what remains of today's allowance.
	if !user.Premium {
		startOfDay := startOfDayUTC(s.timeFunc())
		created, err := s.stores.Cards.CountCreatedSince(ctx, req.UserID, startOfDay)
		if err != nil {
			return nil, NewCardServiceError("generate_cards", "failed to check daily quota", err)
		}

		remaining := s.cfg.DailyCardLimit - created
		if remaining <= 0 {
			log.Info("daily card limit reached",
				slog.String("user_id", req.UserID.String()),
				slog.Int("created_today", created))
			return nil, ErrDailyLimitReached
		}
		if count > remaining {
			log.Debug("capping requested card count to remaining quota",
				slog.Int("requested", count),
				slog.Int("remaining", remaining))
			count = remaining
		}
	}

	source := truncateSource(req.SourceText, s.cfg.MaxSourceChars)

	candidates, err := s.generator.GenerateCards(ctx, generation.Request{
		SourceText: source,
		CardCount:  count,
		Language:   req.Language,
	})
	if err != nil {
		log.Error("card generation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID.String()))
		return nil, NewCardServiceError("generate_cards", "generator call failed", err)
	}

	valid := generation.FilterCandidates(candidates)
	if len(valid) == 0 {
		// Partial or useless generator output is an expected outcome, not a
		// failure; the caller reports "0 cards created".
		log.Warn("generator produced no usable cards",
			slog.Int("raw_candidates", len(candidates)),
			slog.String("user_id", req.UserID.String()))
		return &GenerateResult{
			Deck:      deck,
			Cards:     []*domain.Card{},
			Discarded: len(candidates),
		}, nil
	}

	cards := make([]*domain.Card, 0, len(valid))
	for _, candidate := range valid {
		card, err := domain.NewCard(req.UserID, deck.ID, candidate.Question, candidate.Answer)
		if err != nil {
			return nil, NewCardServiceError("generate_cards", "failed to create card object", err)
		}
		cards = append(cards, card)
	}

	// Cards and review states land in one transaction so a failure leaves
	// nothing partial behind.
	err = s.txRunner.Run(ctx, func(ctx context.Context, tx store.Stores) error {
		if err := tx.Cards.CreateMultiple(ctx, cards); err != nil {
			return NewCardServiceError("generate_cards", "failed to save cards", err)
		}

		for _, card := range cards {
			state, err := domain.NewReviewState(card.UserID, card.ID)
			if err != nil {
				return NewCardServiceError("generate_cards", "failed to create review state object", err)
			}
			if err := tx.Reviews.Create(ctx, state); err != nil {
				return NewCardServiceError("generate_cards", "failed to save review state", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("generated cards successfully",
		slog.String("user_id", req.UserID.String()),
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", len(cards)),
		slog.Int("discarded", len(candidates)-len(valid)))

	return &GenerateResult{
		Deck:      deck,
		Cards:     cards,
		Discarded: len(candidates) - len(valid),
	}, nil
}

// GetCard implements CardService.GetCard
func (s *cardServiceImpl) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.stores.Cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if card.UserID != userID {
		return nil, ErrNotOwned
	}

	return card, nil
}

// UpdateCardText implements CardService.UpdateCardText
func (s *cardServiceImpl) UpdateCardText(ctx context.Context, userID, cardID uuid.UUID, question, answer string) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.GetCard(ctx, userID, cardID); err != nil {
		return nil, err
	}

	if err := s.stores.Cards.UpdateText(ctx, cardID, question, answer); err != nil {
		log.Warn("card text update rejected",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	return s.stores.Cards.GetByID(ctx, cardID)
}

// DeleteCard implements CardService.DeleteCard
func (s *cardServiceImpl) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.GetCard(ctx, userID, cardID); err != nil {
		return err
	}

	if err := s.stores.Cards.Delete(ctx, cardID); err != nil {
		return err
	}

	log.Info("card deleted",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// truncateSource limits source text to maxChars characters. The limit counts
// runes, not bytes, so multi-byte text is never cut mid-character. A
// non-positive limit disables truncation.
func truncateSource(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// startOfDayUTC returns midnight UTC of the given time's date. The daily
// quota window is a calendar day, not a rolling 24 hours.
func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

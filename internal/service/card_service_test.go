package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck-api/internal/config"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/generation"
	"github.com/studydeck/studydeck-api/internal/service"
	"github.com/studydeck/studydeck-api/internal/store"
	"github.com/studydeck/studydeck-api/internal/store/memory"
)

// fakeGenerator returns canned candidates and records the last request.
type fakeGenerator struct {
	candidates []generation.Candidate
	err        error
	lastReq    generation.Request
	calls      int
}

func (g *fakeGenerator) GenerateCards(ctx context.Context, req generation.Request) ([]generation.Candidate, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.candidates, nil
}

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		DailyCardLimit:   20,
		MaxSourceChars:   10000,
		DefaultCardCount: 10,
	}
}

func createUser(t *testing.T, s *memory.Store, premium bool) *domain.User {
	t.Helper()
	user, err := domain.NewUser(uuid.New().String()+"@example.com", "correct-horse-battery")
	require.NoError(t, err)
	user.HashedPassword = "hashed"
	user.Premium = premium
	require.NoError(t, s.Users().Create(context.Background(), user))
	return user
}

func createDeck(t *testing.T, s *memory.Store, userID uuid.UUID, name string) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck(userID, name)
	require.NoError(t, err)
	require.NoError(t, s.Decks().Create(context.Background(), deck))
	return deck
}

func seedCards(t *testing.T, s *memory.Store, userID, deckID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		card, err := domain.NewCard(userID, deckID, "Seed?", "Seeded")
		require.NoError(t, err)
		require.NoError(t, s.Cards().CreateMultiple(context.Background(), []*domain.Card{card}))
	}
}

func storesFor(s *memory.Store) store.Stores {
	return store.Stores{
		Users:   s.Users(),
		Decks:   s.Decks(),
		Cards:   s.Cards(),
		Reviews: s.Reviews(),
	}
}

func newCardService(t *testing.T, s *memory.Store, gen generation.Generator, cfg config.GenerationConfig) service.CardService {
	t.Helper()
	svc, err := service.NewCardService(storesFor(s), s, gen, cfg, slog.Default())
	require.NoError(t, err)
	return svc
}

func TestGenerateCards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists cards and review states into the deck", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Biology")

		gen := &fakeGenerator{candidates: []generation.Candidate{
			{Question: "What is mitosis?", Answer: "Cell division"},
			{Question: "No answer here", Answer: "   "},
			{Klausimas: "Kas yra fotosintezė?", Atsakymas: "Energijos gamyba iš šviesos"},
		}}
		svc := newCardService(t, s, gen, testGenerationConfig())

		result, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "Cell biology notes.",
			CardCount:  3,
		})
		require.NoError(t, err)
		assert.Equal(t, deck.ID, result.Deck.ID)
		require.Len(t, result.Cards, 2)
		assert.Equal(t, 1, result.Discarded)
		assert.Equal(t, "What is mitosis?", result.Cards[0].Question)
		assert.Equal(t, "Kas yra fotosintezė?", result.Cards[1].Question)

		// Every generated card is enrolled for study and immediately due.
		for _, card := range result.Cards {
			state, err := s.Reviews().Get(ctx, user.ID, card.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.DefaultDifficulty, state.Difficulty)
			assert.Equal(t, 0, state.TimesReviewed)
		}

		cards, err := s.Cards().ListByDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Len(t, cards, 2)
	})

	t.Run("defaults card count", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		gen := &fakeGenerator{candidates: []generation.Candidate{
			{Question: "Q?", Answer: "A"},
		}}
		svc := newCardService(t, s, gen, testGenerationConfig())

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, gen.lastReq.CardCount)
	})

	t.Run("truncates long source text", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		cfg := testGenerationConfig()
		cfg.MaxSourceChars = 10

		gen := &fakeGenerator{candidates: []generation.Candidate{
			{Question: "Q?", Answer: "A"},
		}}
		svc := newCardService(t, s, gen, cfg)

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "0123456789 overflow text",
		})
		require.NoError(t, err)
		assert.Equal(t, "0123456789", gen.lastReq.SourceText)
	})

	t.Run("daily limit blocks non-premium user", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		cfg := testGenerationConfig()
		cfg.DailyCardLimit = 2
		seedCards(t, s, user.ID, deck.ID, 2)

		gen := &fakeGenerator{candidates: []generation.Candidate{{Question: "Q?", Answer: "A"}}}
		svc := newCardService(t, s, gen, cfg)

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
		})
		assert.ErrorIs(t, err, service.ErrDailyLimitReached)
		assert.Zero(t, gen.calls)
	})

	t.Run("requested count capped to remaining quota", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		cfg := testGenerationConfig()
		cfg.DailyCardLimit = 5
		seedCards(t, s, user.ID, deck.ID, 3)

		gen := &fakeGenerator{candidates: []generation.Candidate{{Question: "Q?", Answer: "A"}}}
		svc := newCardService(t, s, gen, cfg)

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
			CardCount:  10,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, gen.lastReq.CardCount)
	})

	t.Run("premium user bypasses daily limit", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, true)
		deck := createDeck(t, s, user.ID, "Deck")

		cfg := testGenerationConfig()
		cfg.DailyCardLimit = 1
		seedCards(t, s, user.ID, deck.ID, 1)

		gen := &fakeGenerator{candidates: []generation.Candidate{{Question: "Q2?", Answer: "A2"}}}
		svc := newCardService(t, s, gen, cfg)

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
			CardCount:  5,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, gen.lastReq.CardCount)
	})

	t.Run("zero usable candidates is a success with no cards", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		gen := &fakeGenerator{candidates: []generation.Candidate{
			{Question: "   ", Answer: "A"},
			{Question: "Q", Answer: ""},
		}}
		svc := newCardService(t, s, gen, testGenerationConfig())

		result, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Cards)
		assert.Equal(t, 2, result.Discarded)

		cards, err := s.Cards().ListByDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	t.Run("generator failure wrapped with operation context", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		user := createUser(t, s, false)
		deck := createDeck(t, s, user.ID, "Deck")

		genErr := errors.New("model unavailable")
		gen := &fakeGenerator{err: genErr}
		svc := newCardService(t, s, gen, testGenerationConfig())

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     user.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, genErr)

		var svcErr *service.CardServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "generate_cards", svcErr.Operation)
	})

	t.Run("generating into another user's deck", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		owner := createUser(t, s, false)
		intruder := createUser(t, s, false)
		deck := createDeck(t, s, owner.ID, "Private")

		svc := newCardService(t, s, &fakeGenerator{}, testGenerationConfig())

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     intruder.ID,
			DeckID:     deck.ID,
			SourceText: "notes",
		})
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		svc := newCardService(t, s, &fakeGenerator{}, testGenerationConfig())

		_, err := svc.GenerateCards(ctx, service.GenerateRequest{
			UserID:     uuid.New(),
			DeckID:     uuid.New(),
			SourceText: "notes",
		})
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestCardOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	owner := createUser(t, s, false)
	intruder := createUser(t, s, false)
	deck := createDeck(t, s, owner.ID, "Deck")

	gen := &fakeGenerator{candidates: []generation.Candidate{{Question: "Q?", Answer: "A"}}}
	svc := newCardService(t, s, gen, testGenerationConfig())

	result, err := svc.GenerateCards(ctx, service.GenerateRequest{
		UserID:     owner.ID,
		DeckID:     deck.ID,
		SourceText: "notes",
	})
	require.NoError(t, err)
	cardID := result.Cards[0].ID

	t.Run("get by non-owner", func(t *testing.T) {
		_, err := svc.GetCard(ctx, intruder.ID, cardID)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("update by non-owner", func(t *testing.T) {
		_, err := svc.UpdateCardText(ctx, intruder.ID, cardID, "New?", "New")
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("delete by non-owner", func(t *testing.T) {
		err := svc.DeleteCard(ctx, intruder.ID, cardID)
		assert.ErrorIs(t, err, service.ErrNotOwned)
	})

	t.Run("owner updates and deletes", func(t *testing.T) {
		card, err := svc.UpdateCardText(ctx, owner.ID, cardID, "Edited?", "Edited")
		require.NoError(t, err)
		assert.Equal(t, "Edited?", card.Question)

		require.NoError(t, svc.DeleteCard(ctx, owner.ID, cardID))
		_, err = svc.GetCard(ctx, owner.ID, cardID)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})
}

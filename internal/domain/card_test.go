package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeck/studydeck-api/internal/domain"
)

func TestNewCard(t *testing.T) {
	userID := uuid.New()
	deckID := uuid.New()

	t.Run("valid card", func(t *testing.T) {
		card, err := domain.NewCard(userID, deckID, "What is photosynthesis for?", "Converting light energy into glucose.")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, card.ID)
		assert.Equal(t, userID, card.UserID)
		assert.Equal(t, deckID, card.DeckID)
		assert.False(t, card.CreatedAt.IsZero())
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		card, err := domain.NewCard(userID, deckID, "  Q  ", "  A  ")
		require.NoError(t, err)
		assert.Equal(t, "Q", card.Question)
		assert.Equal(t, "A", card.Answer)
	})

	tests := []struct {
		name     string
		userID   uuid.UUID
		deckID   uuid.UUID
		question string
		answer   string
		wantErr  error
	}{
		{"empty question", userID, deckID, "", "A", domain.ErrCardQuestionEmpty},
		{"whitespace question", userID, deckID, "   ", "A", domain.ErrCardQuestionEmpty},
		{"empty answer", userID, deckID, "Q", "", domain.ErrCardAnswerEmpty},
		{"nil user ID", uuid.Nil, deckID, "Q", "A", domain.ErrCardUserIDEmpty},
		{"nil deck ID", userID, uuid.Nil, "Q", "A", domain.ErrCardDeckIDEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewCard(tt.userID, tt.deckID, tt.question, tt.answer)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCardUpdateText(t *testing.T) {
	card, err := domain.NewCard(uuid.New(), uuid.New(), "old question", "old answer")
	require.NoError(t, err)
	originalUpdatedAt := card.UpdatedAt

	t.Run("valid update", func(t *testing.T) {
		err := card.UpdateText("new question", "new answer")
		require.NoError(t, err)
		assert.Equal(t, "new question", card.Question)
		assert.Equal(t, "new answer", card.Answer)
		assert.True(t, !card.UpdatedAt.Before(originalUpdatedAt))
	})

	t.Run("invalid update restores original text", func(t *testing.T) {
		err := card.UpdateText("", "answer")
		assert.ErrorIs(t, err, domain.ErrCardQuestionEmpty)
		assert.Equal(t, "new question", card.Question)
		assert.Equal(t, "new answer", card.Answer)
	})
}

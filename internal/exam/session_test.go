package exam_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/exam"
)

func newTestPool(t *testing.T, userID uuid.UUID, n int) []*domain.Card {
	t.Helper()
	deckID := uuid.New()
	pool := make([]*domain.Card, 0, n)
	for i := 0; i < n; i++ {
		card, err := domain.NewCard(userID, deckID, "question", "answer")
		require.NoError(t, err)
		pool = append(pool, card)
	}
	return pool
}

// answerAll runs reveal-then-answer through every remaining question.
// correctUntil is how many answers are graded correct, counted from the
// session's current position.
func answerAll(t *testing.T, s *exam.Session, correctUntil int) {
	t.Helper()
	for i := 0; s.Status() == exam.StatusInProgress; i++ {
		_, err := s.Reveal()
		require.NoError(t, err)
		require.NoError(t, s.Answer(i < correctUntil))
	}
}

func TestSessionStart(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	t.Run("draws exactly count distinct cards", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 20)

		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 10, 0))

		seen := make(map[uuid.UUID]bool)
		for s.Status() == exam.StatusInProgress {
			card, revealed, err := s.Current()
			require.NoError(t, err)
			assert.False(t, revealed)
			assert.False(t, seen[card.ID], "card drawn twice")
			seen[card.ID] = true

			_, err = s.Reveal()
			require.NoError(t, err)
			require.NoError(t, s.Answer(true))
		}
		assert.Len(t, seen, 10)
	})

	t.Run("count clamped to pool size", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 3)

		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 50, 0))

		_, total := s.Progress()
		assert.Equal(t, 3, total)
	})

	t.Run("non-positive count uses whole pool", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 7)

		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 0, 0))

		_, total := s.Progress()
		assert.Equal(t, 7, total)
	})

	t.Run("orderings differ across sessions", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 20)

		// With a pool of 20 the chance of two independent shuffles agreeing
		// on all ten draws is negligible; ten attempts make a flake
		// effectively impossible.
		differed := false
		for attempt := 0; attempt < 10 && !differed; attempt++ {
			first := drawOrder(t, userID, pool)
			second := drawOrder(t, userID, pool)
			if !equalOrder(first, second) {
				differed = true
			}
		}
		assert.True(t, differed, "repeated draws never produced a different ordering")
	})

	t.Run("empty pool rejected", func(t *testing.T) {
		t.Parallel()
		s := exam.NewSession(userID)
		err := s.Start(nil, 5, 0)
		assert.ErrorIs(t, err, exam.ErrEmptyPool)
		assert.Equal(t, exam.StatusNotStarted, s.Status())
	})

	t.Run("double start rejected", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 3, 0))

		err := s.Start(pool, 3, 0)
		assert.ErrorIs(t, err, exam.ErrAlreadyStarted)
	})
}

func drawOrder(t *testing.T, userID uuid.UUID, pool []*domain.Card) []uuid.UUID {
	t.Helper()
	s := exam.NewSession(userID)
	require.NoError(t, s.Start(pool, 10, 0))

	order := make([]uuid.UUID, 0, 10)
	for s.Status() == exam.StatusInProgress {
		card, _, err := s.Current()
		require.NoError(t, err)
		order = append(order, card.ID)
		_, err = s.Reveal()
		require.NoError(t, err)
		require.NoError(t, s.Answer(true))
	}
	return order
}

func equalOrder(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSessionAnswerFlow(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	t.Run("answer before reveal is a contract violation", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, 0))

		err := s.Answer(true)
		assert.ErrorIs(t, err, exam.ErrNotRevealed)

		// The violation must not consume the question.
		answered, total := s.Progress()
		assert.Equal(t, 0, answered)
		assert.Equal(t, 5, total)
		assert.Equal(t, exam.StatusInProgress, s.Status())
	})

	t.Run("reveal is idempotent and does not advance", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, 0))

		before, _, err := s.Current()
		require.NoError(t, err)

		first, err := s.Reveal()
		require.NoError(t, err)
		second, err := s.Reveal()
		require.NoError(t, err)
		assert.Equal(t, before.ID, first.ID)
		assert.Equal(t, before.ID, second.ID)

		answered, _ := s.Progress()
		assert.Equal(t, 0, answered)
	})

	t.Run("reveal resets per question", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 3)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 3, 0))

		_, err := s.Reveal()
		require.NoError(t, err)
		require.NoError(t, s.Answer(true))

		// Next question starts unrevealed again.
		_, revealed, err := s.Current()
		require.NoError(t, err)
		assert.False(t, revealed)
		assert.ErrorIs(t, s.Answer(true), exam.ErrNotRevealed)
	})

	t.Run("answering last question finishes session", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 4)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 4, 0))

		answerAll(t, s, 3)
		assert.Equal(t, exam.StatusFinished, s.Status())

		_, _, err := s.Current()
		assert.ErrorIs(t, err, exam.ErrNotInProgress)
		_, err = s.Reveal()
		assert.ErrorIs(t, err, exam.ErrNotInProgress)
		assert.ErrorIs(t, s.Answer(true), exam.ErrNotInProgress)
	})
}

func TestSessionSummary(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	t.Run("score and weak spots", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 4)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 4, 0))

		// Three correct, one wrong.
		answerAll(t, s, 3)

		summary, err := s.Summary()
		require.NoError(t, err)
		assert.Equal(t, 4, summary.Total)
		assert.Equal(t, 4, summary.Answered)
		assert.Equal(t, 3, summary.Correct)
		assert.InDelta(t, 0.75, summary.Score, 1e-9)
		assert.Len(t, summary.WeakSpots, 1)
		assert.False(t, summary.TimedOut)
	})

	t.Run("unfinished session has no summary", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 4)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 4, 0))

		_, err := s.Summary()
		assert.ErrorIs(t, err, exam.ErrNotFinished)
	})
}

func TestSessionTimeout(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	t.Run("timeout finishes and scores answered only", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 10)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 10, time.Minute))

		// Answer two of ten, both correct.
		for i := 0; i < 2; i++ {
			_, err := s.Reveal()
			require.NoError(t, err)
			require.NoError(t, s.Answer(true))
		}

		assert.False(t, s.CheckTimeout(time.Now()))
		assert.Equal(t, exam.StatusInProgress, s.Status())

		assert.True(t, s.CheckTimeout(time.Now().Add(2*time.Minute)))
		assert.Equal(t, exam.StatusFinished, s.Status())

		summary, err := s.Summary()
		require.NoError(t, err)
		assert.Equal(t, 10, summary.Total)
		assert.Equal(t, 2, summary.Answered)
		assert.Equal(t, 2, summary.Correct)
		assert.InDelta(t, 1.0, summary.Score, 1e-9)
		assert.True(t, summary.TimedOut)
	})

	t.Run("no answers scores zero", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, time.Second))

		require.True(t, s.CheckTimeout(time.Now().Add(time.Hour)))

		summary, err := s.Summary()
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Answered)
		assert.Zero(t, summary.Score)
	})

	t.Run("no limit never times out", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, 0))

		assert.False(t, s.CheckTimeout(time.Now().Add(240*time.Hour)))
		assert.Equal(t, exam.StatusInProgress, s.Status())
	})
}

func TestSessionCancel(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	t.Run("cancel discards statistics", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, 0))

		_, err := s.Reveal()
		require.NoError(t, err)
		require.NoError(t, s.Answer(false))

		require.NoError(t, s.Cancel())
		assert.Equal(t, exam.StatusNotStarted, s.Status())

		answered, total := s.Progress()
		assert.Zero(t, answered)
		assert.Zero(t, total)

		_, err = s.Summary()
		assert.ErrorIs(t, err, exam.ErrNotFinished)
	})

	t.Run("cancelled session can start again", func(t *testing.T) {
		t.Parallel()
		pool := newTestPool(t, userID, 5)
		s := exam.NewSession(userID)
		require.NoError(t, s.Start(pool, 5, 0))
		require.NoError(t, s.Cancel())

		require.NoError(t, s.Start(pool, 2, 0))
		assert.Equal(t, exam.StatusInProgress, s.Status())
		_, total := s.Progress()
		assert.Equal(t, 2, total)
	})

	t.Run("cancel requires in progress", func(t *testing.T) {
		t.Parallel()
		s := exam.NewSession(userID)
		assert.ErrorIs(t, s.Cancel(), exam.ErrNotInProgress)

		pool := newTestPool(t, userID, 2)
		require.NoError(t, s.Start(pool, 2, 0))
		answerAll(t, s, 2)
		assert.ErrorIs(t, s.Cancel(), exam.ErrNotInProgress)
	})
}

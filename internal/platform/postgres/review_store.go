package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/store"
)

// PostgresReviewStateStore implements the store.ReviewStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStateStore creates a new PostgreSQL implementation of the ReviewStateStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStateStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStateStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_state_store")),
	}
}

// Ensure PostgresReviewStateStore implements store.ReviewStateStore interface
var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

// Create implements store.ReviewStateStore.Create
// It enrolls a card for study by inserting its review state row.
// Returns store.ErrDuplicate if the card is already enrolled and
// store.ErrInvalidEntity if the referenced user or card does not exist.
func (s *PostgresReviewStateStore) Create(ctx context.Context, state *domain.ReviewState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("review state validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", state.CardID.String()))
		return err
	}

	query := `
		INSERT INTO review_states (user_id, card_id, difficulty, next_review_at, times_reviewed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		state.UserID,
		state.CardID,
		state.Difficulty,
		state.NextReviewAt,
		state.TimesReviewed,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("card already enrolled for study",
				slog.String("card_id", state.CardID.String()))
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during review state creation",
				slog.String("card_id", state.CardID.String()),
				slog.String("user_id", state.UserID.String()))
			return fmt.Errorf("%w: referenced user or card not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create review state",
			slog.String("error", err.Error()),
			slog.String("card_id", state.CardID.String()))
		return MapError(err)
	}

	log.Info("review state created successfully",
		slog.String("card_id", state.CardID.String()),
		slog.String("user_id", state.UserID.String()))
	return nil
}

// Get implements store.ReviewStateStore.Get
// Returns store.ErrReviewStateNotFound if the card is not enrolled for the
// given user.
func (s *PostgresReviewStateStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, card_id, difficulty, next_review_at, times_reviewed, created_at, updated_at
		FROM review_states
		WHERE user_id = $1 AND card_id = $2
	`

	var state domain.ReviewState
	err := s.db.QueryRowContext(ctx, query, userID, cardID).Scan(
		&state.UserID,
		&state.CardID,
		&state.Difficulty,
		&state.NextReviewAt,
		&state.TimesReviewed,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review state not found",
				slog.String("card_id", cardID.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrReviewStateNotFound
		}
		log.Error("failed to get review state",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return &state, nil
}

// ListDue implements store.ReviewStateStore.ListDue
// The comparison is date-granular: a card due at any point today remains due
// all day. Results come back in enrollment order.
func (s *PostgresReviewStateStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, card_id, difficulty, next_review_at, times_reviewed, created_at, updated_at
		FROM review_states
		WHERE user_id = $1
		  AND (next_review_at AT TIME ZONE 'UTC')::date <= ($2 AT TIME ZONE 'UTC')::date
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, now.UTC())
	if err != nil {
		log.Error("failed to query due review states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	states := []*domain.ReviewState{}
	for rows.Next() {
		var state domain.ReviewState
		err := rows.Scan(
			&state.UserID,
			&state.CardID,
			&state.Difficulty,
			&state.NextReviewAt,
			&state.TimesReviewed,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan review state row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed due review states",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(states)))
	return states, nil
}

// Update implements store.ReviewStateStore.Update
// Returns store.ErrReviewStateNotFound if the entry does not exist.
func (s *PostgresReviewStateStore) Update(ctx context.Context, state *domain.ReviewState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("review state validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", state.CardID.String()))
		return err
	}

	query := `
		UPDATE review_states
		SET difficulty = $1, next_review_at = $2, times_reviewed = $3, updated_at = $4
		WHERE user_id = $5 AND card_id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		state.Difficulty,
		state.NextReviewAt,
		state.TimesReviewed,
		state.UpdatedAt,
		state.UserID,
		state.CardID,
	)
	if err != nil {
		log.Error("failed to update review state",
			slog.String("error", err.Error()),
			slog.String("card_id", state.CardID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", state.CardID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("review state not found for update",
			slog.String("card_id", state.CardID.String()))
		return store.ErrReviewStateNotFound
	}

	log.Debug("review state updated successfully",
		slog.String("card_id", state.CardID.String()),
		slog.Int("difficulty", state.Difficulty))
	return nil
}

// WithTx implements store.ReviewStateStore.WithTx
// It returns a new store instance bound to the given transaction.
func (s *PostgresReviewStateStore) WithTx(tx *sql.Tx) store.ReviewStateStore {
	return &PostgresReviewStateStore{
		db:     tx,
		logger: s.logger,
	}
}

package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/studydeck/studydeck-api/internal/store"
)

// TxRunner implements store.TxRunner by opening a database transaction and
// rebinding every store to it for the duration of the callback. The
// transaction commits when the callback returns nil and rolls back otherwise.
type TxRunner struct {
	db      *sql.DB
	users   *PostgresUserStore
	decks   *PostgresDeckStore
	cards   *PostgresCardStore
	reviews *PostgresReviewStateStore
}

// NewTxRunner creates a transaction runner over the given database connection.
// If logger is nil, a default logger will be used.
func NewTxRunner(db *sql.DB, logger *slog.Logger) *TxRunner {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TxRunner{
		db:      db,
		users:   NewPostgresUserStore(db, logger),
		decks:   NewPostgresDeckStore(db, logger),
		cards:   NewPostgresCardStore(db, logger),
		reviews: NewPostgresReviewStateStore(db, logger),
	}
}

// Ensure TxRunner implements the store.TxRunner interface
var _ store.TxRunner = (*TxRunner)(nil)

// Run implements store.TxRunner.Run
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, store.Stores{
			Users:   r.users.WithTx(tx),
			Decks:   r.decks.WithTx(tx),
			Cards:   r.cards.WithTx(tx),
			Reviews: r.reviews.WithTx(tx),
		})
	})
}

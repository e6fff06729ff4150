package postgres

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsPanicOnNilDB(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewPostgresUserStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresDeckStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresCardStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresReviewStateStore(nil, nil) })
	assert.Panics(t, func() { NewTxRunner(nil, nil) })
}

func TestWithTxReturnsBoundInstance(t *testing.T) {
	t.Parallel()

	db := &sql.DB{}
	tx := &sql.Tx{}

	users := NewPostgresUserStore(db, nil)
	assert.NotSame(t, users, users.WithTx(tx))

	decks := NewPostgresDeckStore(db, nil)
	assert.NotSame(t, decks, decks.WithTx(tx))

	cards := NewPostgresCardStore(db, nil)
	assert.NotSame(t, cards, cards.WithTx(tx))

	reviews := NewPostgresReviewStateStore(db, nil)
	assert.NotSame(t, reviews, reviews.WithTx(tx))
}

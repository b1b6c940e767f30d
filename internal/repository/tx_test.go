package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestTxFromContext_Empty(t *testing.T) {
	_, ok := txFromContext(context.Background())
	assert.False(t, ok)
}

func TestTxFromContext_RoundTrip(t *testing.T) {
	var tx pgx.Tx = fakeTx{}
	ctx := withTx(context.Background(), tx)

	got, ok := txFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, tx, got)
	assert.Equal(t, tx, conn(ctx, nil))
}

// fakeTx only needs to satisfy pgx.Tx for context plumbing.
type fakeTx struct {
	pgx.Tx
}

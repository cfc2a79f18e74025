package decisionlog

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goFeedEscrow/internal/core/escrow"
	"github.com/LeJamon/goFeedEscrow/internal/core/feed"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
	"github.com/LeJamon/goFeedEscrow/internal/core/scaled"
	"github.com/LeJamon/goFeedEscrow/internal/core/validator"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "decisions.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()
	base := time.Date(2023, 10, 1, 10, 43, 20, 0, time.UTC)
	tick := 0
	l.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	obs := &feed.Observation{
		PairLabels: [2]string{"ADA-USD", "USD-ADA"},
		Values:     [2]scaled.Decimal{{Significand: 24475, Exponent: -5}, {Significand: 4, Exponent: 0}},
	}
	accepted := validator.Decision{
		Action:      escrow.Claim,
		Result:      validator.Accepted,
		Observation: obs,
		OracleRef:   &ledger.OutputRef{TxHash: "6812", Index: 0},
		Price:       big.NewInt(244750),
	}
	rejected := validator.Decision{Action: escrow.Refund, Result: validator.MissingRefundSignature}

	first, err := l.Record(ctx, FromDecision("evaluate", "aa#0", accepted))
	require.NoError(t, err)
	_, err = l.Record(ctx, FromDecision("evaluate", "bb#1", rejected))
	require.NoError(t, err)

	entries, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "bb#1", entries[0].EscrowRef)
	assert.Equal(t, validator.MissingRefundSignature.String(), entries[0].Result)
	assert.Empty(t, entries[0].OracleRef)

	got := entries[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, l.RunID(), got.RunID)
	assert.Equal(t, "Claim", got.Action)
	assert.Equal(t, "6812#0", got.OracleRef)
	assert.Equal(t, "ADA-USD|USD-ADA", got.Feed)
	assert.Equal(t, "0.24475", got.Price)
	assert.Equal(t, "244750", got.BreakerPrice)
	assert.True(t, base.Add(time.Second).Equal(got.RecordedAt))

	limited, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	ctx := context.Background()

	l, err := Open(ctx, DriverSQLite, path, 1)
	require.NoError(t, err)
	_, err = l.Record(ctx, Entry{Source: "plan claim", EscrowRef: "aa#0", Action: "Claim", Result: "Accepted"})
	require.NoError(t, err)
	runID := l.RunID()
	require.NoError(t, l.Close())

	_, err = l.Record(ctx, Entry{})
	assert.ErrorIs(t, err, ErrLogClosed)

	again, err := Open(ctx, DriverSQLite, path, 1)
	require.NoError(t, err)
	defer again.Close()
	assert.NotEqual(t, runID, again.RunID())

	entries, err := again.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runID, entries[0].RunID)
}

func TestOpenInvalidDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x", 0)
	assert.ErrorIs(t, err, ErrInvalidDriver)
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"
	assert.Equal(t, q, rebind(DriverSQLite, q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3", rebind(DriverPostgres, q))
}

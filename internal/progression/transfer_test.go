package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyCoinsRoundTrip(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-28")
	rec.XP = 100
	rec.Level = Level(rec.XP)
	rec.Coins = 2

	out, err := BuyCoins(rec, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 50, out.XP)
	assert.EqualValues(t, 7, out.Coins)
	assert.Equal(t, Level(50), out.Level, "level must be recomputed from the reduced XP")
}

func TestBuyCoinsRejectsInsufficientXP(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-28")
	rec.XP = 49

	out, err := BuyCoins(rec, 5)
	assert.ErrorIs(t, err, ErrInsufficientXP)
	assert.Equal(t, rec, out)
}

func TestBuyCoinsRejectsNonPositiveAmount(t *testing.T) {
	rec := NewRecord("g1", "u1", "2026-08-28")
	rec.XP = 100

	_, err := BuyCoins(rec, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = BuyCoins(rec, -3)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransferXP(t *testing.T) {
	from := NewRecord("g1", "u1", "2026-08-28")
	from.XP = 100
	from.Level = Level(from.XP)
	to := NewRecord("g1", "u2", "2026-08-28")

	outFrom, outTo, err := TransferXP(from, to, 40)
	require.NoError(t, err)
	assert.EqualValues(t, 60, outFrom.XP)
	assert.EqualValues(t, 40, outTo.XP)
	assert.Equal(t, Level(60), outFrom.Level)
	assert.Equal(t, Level(40), outTo.Level)
}

func TestTransferXPRejections(t *testing.T) {
	from := NewRecord("g1", "u1", "2026-08-28")
	from.XP = 10
	to := NewRecord("g1", "u2", "2026-08-28")

	_, _, err := TransferXP(from, to, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = TransferXP(from, to, 11)
	assert.ErrorIs(t, err, ErrInsufficientXP)

	_, _, err = TransferXP(from, from, 5)
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

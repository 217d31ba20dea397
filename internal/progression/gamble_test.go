package progression

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource feeds predetermined Int63 values to math/rand so game
// outcomes are exact. Values cycle when exhausted.
type scriptedSource struct {
	vals []int64
	i    int
}

func (s *scriptedSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *scriptedSource) Seed(int64) {}

func scripted(vals ...int64) *rand.Rand {
	return rand.New(&scriptedSource{vals: vals})
}

// int31 values ride in the top 32 bits of an Int63 draw.
func draw(v int64) int64 { return v << 32 }

func TestGambleRejectsNonPositiveBet(t *testing.T) {
	_, err := Gamble(GameSlots, 0, 1, scripted(0))
	assert.ErrorIs(t, err, ErrInvalidBet)
	_, err = Gamble(GameSlots, -10, 1, scripted(0))
	assert.ErrorIs(t, err, ErrInvalidBet)
}

func TestGambleUnknownGame(t *testing.T) {
	_, err := Gamble(Game("roulette"), 10, 1, scripted(0))
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestGambleSlotsJackpot(t *testing.T) {
	// Three identical draws: all-equal reels pay 3x scaled by the loyalty
	// multiplier, floored.
	res, err := Gamble(GameSlots, 100, 7, scripted(draw(0)))
	require.NoError(t, err)
	assert.EqualValues(t, 321, res.Delta) // floor(100 * 3 * 1.07)
	assert.Contains(t, res.Outcome, "jackpot")
}

func TestGambleSlotsLossDeductsFullBet(t *testing.T) {
	res, err := Gamble(GameSlots, 100, 7, scripted(draw(0), draw(1), draw(0)))
	require.NoError(t, err)
	assert.EqualValues(t, -100, res.Delta)
}

func TestGambleHighLowWin(t *testing.T) {
	// User draws card 13, bot draws card 1.
	res, err := Gamble(GameHighLow, 100, 7, scripted(draw(12), draw(0)))
	require.NoError(t, err)
	assert.EqualValues(t, 107, res.Delta) // floor(100 * 1.07)
}

func TestGambleHighLowTieLoses(t *testing.T) {
	res, err := Gamble(GameHighLow, 100, 1, scripted(draw(0)))
	require.NoError(t, err)
	assert.EqualValues(t, -100, res.Delta)
}

func TestGambleCoinflipWin(t *testing.T) {
	// Identical draws land the same side twice.
	res, err := Gamble(GameCoinflip, 100, 7, scripted(0))
	require.NoError(t, err)
	assert.EqualValues(t, 107, res.Delta)
}

func TestGambleDiceLoss(t *testing.T) {
	res, err := Gamble(GameDice, 50, 1, scripted(draw(0)))
	require.NoError(t, err)
	assert.EqualValues(t, -50, res.Delta)
}

func TestGambleBombSurvivesAllTrials(t *testing.T) {
	// A 0.5 draw never explodes; five survived trials reach a 3.5x
	// multiplier.
	res, err := Gamble(GameBomb, 100, 7, scripted(1<<62))
	require.NoError(t, err)
	assert.EqualValues(t, 374, res.Delta) // floor(100 * 3.5 * 1.07)
}

func TestGambleBombExplodes(t *testing.T) {
	res, err := Gamble(GameBomb, 100, 7, scripted(0))
	require.NoError(t, err)
	assert.EqualValues(t, -100, res.Delta)
}

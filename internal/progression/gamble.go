package progression

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Game identifies one of the gambling mini-games.
type Game string

const (
	GameHighLow  Game = "highlow"
	GameCoinflip Game = "coinflip"
	GameDice     Game = "dice"
	GameSlots    Game = "slots"
	GameBomb     Game = "bomb"
)

var (
	ErrUnknownGame     = errors.New("unknown game")
	ErrInvalidBet      = errors.New("bet must be a positive integer")
	ErrInsufficientBet = errors.New("bet exceeds coin balance")
)

var slotIcons = []string{"🍒", "🍋", "🔔", "⭐"}

// GambleResult is the outcome of one round: a signed coin delta and a
// human-readable line describing what happened.
type GambleResult struct {
	Delta   int64
	Outcome string
}

// Gamble evaluates one stateless round. Wins scale the bet by the loyalty
// multiplier 1 + streak*0.01 (floored); losses deduct the full bet. The
// caller validates the bet against the member's balance before drawing.
func Gamble(game Game, bet int64, streak int, rng *rand.Rand) (GambleResult, error) {
	if bet <= 0 {
		return GambleResult{}, ErrInvalidBet
	}
	payout := func(mult float64) int64 {
		return int64(math.Floor(float64(bet) * mult * (1 + float64(streak)*0.01)))
	}

	switch game {
	case GameHighLow:
		userCard := rng.Intn(13) + 1
		botCard := rng.Intn(13) + 1
		if userCard > botCard {
			return GambleResult{
				Delta:   payout(1),
				Outcome: fmt.Sprintf("High-Low: you win! Your card %d > bot card %d", userCard, botCard),
			}, nil
		}
		return GambleResult{
			Delta:   -bet,
			Outcome: fmt.Sprintf("High-Low: you lose. Your card %d <= bot card %d", userCard, botCard),
		}, nil

	case GameCoinflip:
		flip := pickSide(rng)
		guess := pickSide(rng)
		if flip == guess {
			return GambleResult{
				Delta:   payout(1),
				Outcome: fmt.Sprintf("Coinflip: you guessed %s and won!", guess),
			}, nil
		}
		return GambleResult{
			Delta:   -bet,
			Outcome: fmt.Sprintf("Coinflip: you guessed %s, but it was %s. You lose.", guess, flip),
		}, nil

	case GameDice:
		userRoll := rng.Intn(100) + 1
		botRoll := rng.Intn(100) + 1
		if userRoll > botRoll {
			return GambleResult{
				Delta:   payout(1),
				Outcome: fmt.Sprintf("Dice: you rolled %d, bot rolled %d. You win!", userRoll, botRoll),
			}, nil
		}
		return GambleResult{
			Delta:   -bet,
			Outcome: fmt.Sprintf("Dice: you rolled %d, bot rolled %d. You lose.", userRoll, botRoll),
		}, nil

	case GameSlots:
		spin := make([]string, 3)
		for i := range spin {
			spin[i] = slotIcons[rng.Intn(len(slotIcons))]
		}
		reel := strings.Join(spin, " ")
		if spin[0] == spin[1] && spin[1] == spin[2] {
			return GambleResult{
				Delta:   payout(3),
				Outcome: fmt.Sprintf("Slots: %s - jackpot!", reel),
			}, nil
		}
		return GambleResult{
			Delta:   -bet,
			Outcome: fmt.Sprintf("Slots: %s - you lose.", reel),
		}, nil

	case GameBomb:
		mult := 1.0
		for i := 0; i < 5; i++ {
			if rng.Float64() < 0.15 {
				return GambleResult{
					Delta:   -bet,
					Outcome: "Bomb: 💣 you hit a bomb and lost everything.",
				}, nil
			}
			mult += 0.5
		}
		delta := payout(mult)
		return GambleResult{
			Delta:   delta,
			Outcome: fmt.Sprintf("Bomb: you risked and won %d coins with x%.1f multiplier!", delta, mult),
		}, nil
	}

	return GambleResult{}, ErrUnknownGame
}

func pickSide(rng *rand.Rand) string {
	if rng.Float64() < 0.5 {
		return "heads"
	}
	return "tails"
}

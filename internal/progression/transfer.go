package progression

import "errors"

var (
	ErrInvalidAmount  = errors.New("amount must be a positive integer")
	ErrInsufficientXP = errors.New("not enough XP")
	ErrSelfTransfer   = errors.New("cannot transfer XP to yourself")
)

// BuyCoins converts XP into coins at the fixed exchange rate. The coin side
// needs no level recompute, but the reduced XP does.
func BuyCoins(rec Record, amount int64) (Record, error) {
	if amount <= 0 {
		return rec, ErrInvalidAmount
	}
	cost := amount * CoinExchangeRate
	if rec.XP < cost {
		return rec, ErrInsufficientXP
	}

	out := rec
	out.XP = rec.XP - cost
	out.Level = Level(out.XP)
	out.Coins = rec.Coins + amount
	return out, nil
}

// TransferXP moves XP between two members, recomputing both levels. The
// caller must commit both records in a single transaction; a debit without
// the matching credit is a lost-funds bug.
func TransferXP(from, to Record, amount int64) (Record, Record, error) {
	if amount <= 0 {
		return from, to, ErrInvalidAmount
	}
	if from.UserID == to.UserID {
		return from, to, ErrSelfTransfer
	}
	if from.XP < amount {
		return from, to, ErrInsufficientXP
	}

	outFrom := from
	outFrom.XP = from.XP - amount
	outFrom.Level = Level(outFrom.XP)

	outTo := to
	outTo.XP = to.XP + amount
	outTo.Level = Level(outTo.XP)

	return outFrom, outTo, nil
}

package trade

import (
	"context"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Bias modes. WIN and LOSE are per-user overrides in trade_modes; ALL_WIN and
// ALL_LOSE are platform-wide via the settings table; AUTO settles against the
// market.
const (
	ModeAuto    = "AUTO"
	ModeWin     = "WIN"
	ModeLose    = "LOSE"
	ModeAllWin  = "ALL_WIN"
	ModeAllLose = "ALL_LOSE"
)

// readBias resolves the effective mode for a user inside the settlement
// transaction: a per-user override beats the platform setting, and a missing
// setting means AUTO.
func readBias(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (string, error) {
	var mode string
	err := tx.QueryRow(ctx, `SELECT mode FROM trade_modes WHERE user_id = $1`, userID).Scan(&mode)
	if err == nil {
		return mode, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = tx.QueryRow(ctx, `SELECT value FROM settings WHERE key = 'trade_mode'`).Scan(&mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return ModeAuto, nil
	}
	if err != nil {
		return "", err
	}
	return mode, nil
}

// outcomeFor decides WIN or LOSE. Forced modes ignore the market. AUTO pays a
// BUY that ended above entry and a SELL that ended below it; an unchanged
// price loses either way.
func outcomeFor(mode, direction string, entry, current decimal.Decimal) string {
	switch mode {
	case ModeWin, ModeAllWin:
		return ResultWin
	case ModeLose, ModeAllLose:
		return ResultLose
	}
	if direction == DirectionBuy && current.GreaterThan(entry) {
		return ResultWin
	}
	if direction == DirectionSell && current.LessThan(entry) {
		return ResultWin
	}
	return ResultLose
}

// settlePriceFor fabricates a close price consistent with the recorded
// outcome: a winning BUY closes above entry, a winning SELL below it, and
// losses invert that. The offset is a random 10 to 80 basis points so forced
// results still look like ordinary market moves.
func settlePriceFor(entry decimal.Decimal, direction, result string) decimal.Decimal {
	bps := decimal.NewFromInt(10 + rand.Int63n(71)).Div(decimal.NewFromInt(10000))
	offset := entry.Mul(bps)

	up := (result == ResultWin && direction == DirectionBuy) ||
		(result == ResultLose && direction == DirectionSell)
	if up {
		return entry.Add(offset).Round(8)
	}
	return entry.Sub(offset).Round(8)
}

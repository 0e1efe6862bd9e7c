package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"

	ResultPending = "PENDING"
	ResultWin     = "WIN"
	ResultLose    = "LOSE"
)

type Trade struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Symbol       string           `json:"symbol"`
	Direction    string           `json:"direction"`
	Stake        decimal.Decimal  `json:"stake"`
	DurationSecs int              `json:"duration_secs"`
	EntryPrice   decimal.Decimal  `json:"entry_price"`
	Result       string           `json:"result"`
	Profit       *decimal.Decimal `json:"profit,omitempty"`
	SettlePrice  *decimal.Decimal `json:"settle_price,omitempty"`
	OpenedAt     time.Time        `json:"opened_at"`
	ExpiresAt    time.Time        `json:"expires_at"`
	ResolvedAt   *time.Time       `json:"resolved_at,omitempty"`
}

// SelectColumns is the column list ScanTrades expects, in order.
const SelectColumns = `id, user_id, symbol, direction, stake::text, duration_secs,
	entry_price::text, result, profit::text, settle_price::text, opened_at, expires_at, resolved_at`

// ScanTrades drains a result set selected with SelectColumns.
func ScanTrades(rows pgx.Rows) ([]Trade, error) {
	trades := []Trade{}
	for rows.Next() {
		var t Trade
		var rawStake, rawEntry string
		var rawProfit, rawSettle *string
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Symbol, &t.Direction, &rawStake, &t.DurationSecs,
			&rawEntry, &t.Result, &rawProfit, &rawSettle, &t.OpenedAt, &t.ExpiresAt, &t.ResolvedAt,
		); err != nil {
			return nil, err
		}
		var err error
		if t.Stake, err = decimal.NewFromString(rawStake); err != nil {
			return nil, err
		}
		if t.EntryPrice, err = decimal.NewFromString(rawEntry); err != nil {
			return nil, err
		}
		if rawProfit != nil {
			p, err := decimal.NewFromString(*rawProfit)
			if err != nil {
				return nil, err
			}
			t.Profit = &p
		}
		if rawSettle != nil {
			s, err := decimal.NewFromString(*rawSettle)
			if err != nil {
				return nil, err
			}
			t.SettlePrice = &s
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

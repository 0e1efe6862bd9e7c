package trade

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/jobs"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/logger"
	"github.com/sudo-init-do/tradebit/internal/market"
)

const TaskTradeResolve = "trade:resolve"

type tradeResolvePayload struct {
	TradeID string `json:"trade_id"`
}

// EnqueueResolve schedules settlement for when the position expires.
func EnqueueResolve(tradeID string, delaySecs int) error {
	payload, err := json.Marshal(tradeResolvePayload{TradeID: tradeID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTradeResolve, payload)
	return jobs.Enqueue(task,
		asynq.ProcessIn(time.Duration(delaySecs)*time.Second),
		asynq.Queue(jobs.QueueTrades),
	)
}

// RegisterHandlers wires trade settlement into the job mux. Call before
// jobs.Start.
func RegisterHandlers() {
	jobs.Handle(TaskTradeResolve, handleResolve)
}

func handleResolve(ctx context.Context, t *asynq.Task) error {
	var p tradeResolvePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.Log.Error("bad trade resolve payload", zap.Error(err))
		return nil
	}
	if err := Resolve(ctx, p.TradeID); err != nil {
		// The sweeper retries overdue positions, so a failed settlement
		// does not requeue here.
		logger.Log.Error("trade settlement failed",
			zap.String("trade_id", p.TradeID), zap.Error(err))
	}
	return nil
}

// Resolve settles one position. It is idempotent: the PENDING check runs
// again under the row lock, so a position settles exactly once no matter how
// many times the queue or the sweeper delivers it. A vanished trade (user
// deleted while the task waited) is a no-op.
func Resolve(ctx context.Context, tradeID string) error {
	// Symbol pre-read so the price fetch stays outside the transaction.
	var symbol, result string
	err := db.Conn.QueryRow(ctx,
		`SELECT symbol, result FROM trades WHERE id = $1`, tradeID,
	).Scan(&symbol, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Log.Info("trade vanished before settlement", zap.String("trade_id", tradeID))
		return nil
	}
	if err != nil {
		return err
	}
	if result != ResultPending {
		return nil
	}

	coin, ok := market.CoinFromSymbol(symbol)
	if !ok {
		return errors.New("trade has unsupported symbol " + symbol)
	}
	current := market.Price(ctx, coin)

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		userID       uuid.UUID
		direction    string
		rawStake     string
		durationSecs int
		rawEntry     string
	)
	err = tx.QueryRow(ctx, `
		SELECT user_id, direction, stake::text, duration_secs, entry_price::text, result
		FROM trades WHERE id = $1 FOR UPDATE
	`, tradeID).Scan(&userID, &direction, &rawStake, &durationSecs, &rawEntry, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if result != ResultPending {
		return nil
	}

	stake, err := decimal.NewFromString(rawStake)
	if err != nil {
		return err
	}
	entry, err := decimal.NewFromString(rawEntry)
	if err != nil {
		return err
	}

	mode, err := readBias(ctx, tx, userID)
	if err != nil {
		return err
	}

	outcome := outcomeFor(mode, direction, entry, current)
	var profit decimal.Decimal
	if outcome == ResultWin {
		profit = stake.Mul(PayoutRate(durationSecs)).Round(8)
	} else {
		profit = stake.Neg()
	}
	settlePrice := settlePriceFor(entry, direction, outcome)

	if _, err := tx.Exec(ctx, `
		UPDATE trades SET result = $2, profit = $3, settle_price = $4, resolved_at = NOW()
		WHERE id = $1
	`, tradeID, outcome, profit.String(), settlePrice.String()); err != nil {
		return err
	}

	if outcome == ResultWin {
		// Stake comes back plus profit. Losses keep the stake debited at open.
		newBal, err := ledger.Credit(ctx, tx, userID, "USDT", stake.Add(profit))
		if err != nil {
			return err
		}
		if err := ledger.RecordHistory(ctx, tx, userID, "USDT", newBal, decimal.NewFromInt(1)); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Log.Info("trade settled",
		zap.String("trade_id", tradeID),
		zap.String("result", outcome),
		zap.String("mode", mode),
		zap.String("profit", profit.String()),
	)
	return nil
}

package trade

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/logger"
	"github.com/sudo-init-do/tradebit/internal/market"
)

type OpenTradeRequest struct {
	Symbol       string          `json:"symbol" validate:"required"`
	Direction    string          `json:"direction" validate:"required"`
	Stake        decimal.Decimal `json:"stake" validate:"required"`
	DurationSecs int             `json:"duration_secs" validate:"required"`
}

// OpenTrade debits the USDT stake and opens a PENDING position at the
// current market price. The entry price is fetched before the transaction so
// no upstream call happens while balance rows are locked. Settlement is
// scheduled on the queue for when the position expires; the sweeper picks up
// anything the queue misses.
func OpenTrade(c echo.Context) error {
	userIDStr, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req OpenTradeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Direction = strings.ToUpper(strings.TrimSpace(req.Direction))

	coin, ok := market.CoinFromSymbol(req.Symbol)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported symbol"})
	}
	if req.Direction != DirectionBuy && req.Direction != DirectionSell {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "direction must be BUY or SELL"})
	}
	if !req.Stake.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stake must be positive"})
	}
	duration := ClampDuration(req.DurationSecs)

	ctx := context.Background()
	entry := market.Price(ctx, coin)

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open trade"})
	}
	defer tx.Rollback(ctx)

	if _, err := ledger.Debit(ctx, tx, userID, "USDT", req.Stake); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open trade"})
	}

	t := Trade{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       req.Symbol,
		Direction:    req.Direction,
		Stake:        req.Stake,
		DurationSecs: duration,
		EntryPrice:   entry,
		Result:       ResultPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO trades (id, user_id, symbol, direction, stake, duration_secs, entry_price, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW() + make_interval(secs => $6))
		RETURNING opened_at, expires_at
	`, t.ID, t.UserID, t.Symbol, t.Direction, t.Stake.String(), duration, entry.String()).
		Scan(&t.OpenedAt, &t.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open trade"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not open trade"})
	}

	if err := EnqueueResolve(t.ID.String(), duration); err != nil {
		logger.Log.Warn("could not schedule trade settlement, sweeper will pick it up",
			zap.String("trade_id", t.ID.String()), zap.Error(err))
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"trade":       t,
		"payout_rate": PayoutRate(duration),
	})
}

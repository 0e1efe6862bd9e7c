package earn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/market"
)

// Advertised flexible-savings rates, percent per year.
var apyPercent = map[string]string{
	"USDT": "8.00",
	"BTC":  "3.50",
	"ETH":  "4.20",
	"BNB":  "5.00",
	"SOL":  "6.10",
	"XRP":  "2.80",
}

type MoveRequest struct {
	Coin   string          `json:"coin" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Deposit moves funds from the spot balance into the earn position.
func Deposit(c echo.Context) error {
	return move(c, ledger.TransferToEarn)
}

// Withdraw moves funds from the earn position back to the spot balance.
func Withdraw(c echo.Context) error {
	return move(c, ledger.TransferFromEarn)
}

func move(c echo.Context, transfer func(context.Context, pgx.Tx, uuid.UUID, string, decimal.Decimal) error) error {
	userIDStr, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req MoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Coin = strings.ToUpper(strings.TrimSpace(req.Coin))
	if !market.IsSupportedCoin(req.Coin) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported coin"})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not move funds"})
	}
	defer tx.Rollback(ctx)

	if err := transfer(ctx, tx, userID, req.Coin, req.Amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not move funds"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not move funds"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "funds moved",
		"coin":    req.Coin,
		"amount":  req.Amount,
	})
}

// Positions lists the caller's earn positions with their advertised rates.
func Positions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := context.Background()

	rows, err := db.Conn.Query(ctx, `
		SELECT coin, amount::text FROM earn_positions
		WHERE user_id = $1 AND amount > 0
		ORDER BY coin
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load positions"})
	}
	defer rows.Close()

	type position struct {
		Coin   string `json:"coin"`
		Amount string `json:"amount"`
		APY    string `json:"apy"`
	}
	positions := []position{}
	for rows.Next() {
		var p position
		if err := rows.Scan(&p.Coin, &p.Amount); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load positions"})
		}
		p.APY = apyPercent[p.Coin]
		positions = append(positions, p)
	}
	if rows.Err() != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load positions"})
	}

	return c.JSON(http.StatusOK, echo.Map{"positions": positions})
}

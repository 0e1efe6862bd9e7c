package wallet

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/market"
)

type WithdrawalRequest struct {
	Coin    string          `json:"coin"`
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address"`
}

// RequestWithdrawal records a pending withdrawal for admin review. The
// balance is not touched here; the debit happens at approval under the row
// lock. The request is still validated against the current balance so
// obviously unpayable requests are rejected upfront.
func RequestWithdrawal(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(WithdrawalRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	coin := strings.ToUpper(strings.TrimSpace(req.Coin))
	if !market.IsSupportedCoin(coin) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported coin"})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}
	if req.Address == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "address required"})
	}

	ctx := context.Background()

	balance := decimal.Zero
	var raw string
	if err := db.Conn.QueryRow(ctx,
		`SELECT amount::text FROM balances WHERE user_id = $1 AND coin = $2`, userID, coin,
	).Scan(&raw); err == nil {
		balance, _ = decimal.NewFromString(raw)
	}
	if req.Amount.GreaterThan(balance) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
	}

	withdrawalID := uuid.New().String()
	_, err := db.Conn.Exec(ctx, `
		INSERT INTO withdrawals (id, user_id, coin, amount, address, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, withdrawalID, userID, coin, req.Amount.String(), req.Address)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create withdrawal request"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"withdrawal_id": withdrawalID,
		"status":        StatusPending,
		"message":       "Withdrawal submitted and awaiting review",
	})
}

// MyWithdrawals lists the authenticated user's withdrawal requests, newest first.
func MyWithdrawals(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(), `
		SELECT id, user_id, coin, amount::text, address, status, created_at, decided_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch withdrawals"})
	}
	defer rows.Close()

	withdrawals, err := scanWithdrawals(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawals": withdrawals})
}

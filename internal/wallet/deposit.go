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

type DepositRequest struct {
	Coin    string          `json:"coin"`
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address"`
	TxProof string          `json:"tx_proof"`
}

// RequestDeposit records a pending deposit for admin review. Nothing is
// credited until an admin approves it.
func RequestDeposit(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(DepositRequest)
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

	var proof *string
	if req.TxProof != "" {
		proof = &req.TxProof
	}

	depositID := uuid.New().String()
	_, err := db.Conn.Exec(context.Background(), `
		INSERT INTO deposits (id, user_id, coin, amount, address, tx_proof, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`, depositID, userID, coin, req.Amount.String(), req.Address, proof)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create deposit request"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"deposit_id": depositID,
		"status":     StatusPending,
		"message":    "Deposit submitted and awaiting review",
	})
}

// MyDeposits lists the authenticated user's deposit requests, newest first.
func MyDeposits(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(), `
		SELECT id, user_id, coin, amount::text, address, tx_proof, status, created_at, decided_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch deposits"})
	}
	defer rows.Close()

	deposits, err := scanDeposits(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deposits": deposits})
}

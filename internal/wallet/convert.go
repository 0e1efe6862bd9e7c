package wallet

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
	"github.com/sudo-init-do/tradebit/internal/market"
)

type ConvertRequest struct {
	From   string          `json:"from" validate:"required"`
	To     string          `json:"to" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// Convert swaps between two supported coins at the current market rate.
// Both legs run in one transaction so a failed credit rolls the debit back.
func Convert(c echo.Context) error {
	userIDStr, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req ConvertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.From = strings.ToUpper(strings.TrimSpace(req.From))
	req.To = strings.ToUpper(strings.TrimSpace(req.To))
	if !market.IsSupportedCoin(req.From) || !market.IsSupportedCoin(req.To) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported coin"})
	}
	if req.From == req.To {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot convert a coin to itself"})
	}
	if !req.Amount.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx := context.Background()

	// Rates come from the feed before any balance row is locked.
	fromPrice := market.Price(ctx, req.From)
	toPrice := market.Price(ctx, req.To)
	if !toPrice.IsPositive() {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "price unavailable"})
	}
	out := req.Amount.Mul(fromPrice).Div(toPrice).RoundDown(8)
	if !out.IsPositive() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount too small to convert"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not convert"})
	}
	defer tx.Rollback(ctx)

	if _, err := ledger.Debit(ctx, tx, userID, req.From, req.Amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not convert"})
	}
	if _, err := ledger.Credit(ctx, tx, userID, req.To, out); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not convert"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not convert"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "conversion complete",
		"from":     req.From,
		"to":       req.To,
		"spent":    req.Amount,
		"received": out,
		"rate":     fromPrice.Div(toPrice).RoundDown(8),
	})
}

package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/ledger"
)

// ListDeposits returns deposit requests across all users, newest first.
// Admins can narrow with ?status=pending|approved|rejected.
func ListDeposits(c echo.Context) error {
	ctx := context.Background()

	query := `
		SELECT id, user_id, coin, amount::text, address, tx_proof, status, created_at, decided_at
		FROM deposits
	`
	args := []any{}
	if status := c.QueryParam("status"); status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list deposits"})
	}
	defer rows.Close()

	deposits, err := scanDeposits(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list deposits"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deposits": deposits})
}

// ListWithdrawals mirrors ListDeposits for the withdrawal queue.
func ListWithdrawals(c echo.Context) error {
	ctx := context.Background()

	query := `
		SELECT id, user_id, coin, amount::text, address, status, created_at, decided_at
		FROM withdrawals
	`
	args := []any{}
	if status := c.QueryParam("status"); status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list withdrawals"})
	}
	defer rows.Close()

	withdrawals, err := scanWithdrawals(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list withdrawals"})
	}
	return c.JSON(http.StatusOK, echo.Map{"withdrawals": withdrawals})
}

func ApproveDeposit(c echo.Context) error { return decideDepositHTTP(c, true) }

func RejectDeposit(c echo.Context) error { return decideDepositHTTP(c, false) }

func ApproveWithdrawal(c echo.Context) error { return decideWithdrawalHTTP(c, true) }

func RejectWithdrawal(c echo.Context) error { return decideWithdrawalHTTP(c, false) }

func decideDepositHTTP(c echo.Context, approve bool) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid deposit id"})
	}

	d, err := DecideDeposit(context.Background(), id, approve)
	if err != nil {
		return requestErrJSON(c, err, "deposit")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "deposit " + d.Status,
		"deposit": d,
	})
}

func decideWithdrawalHTTP(c echo.Context, approve bool) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid withdrawal id"})
	}

	w, err := DecideWithdrawal(context.Background(), id, approve)
	if err != nil {
		return requestErrJSON(c, err, "withdrawal")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "withdrawal " + w.Status,
		"withdrawal": w,
	})
}

func requestErrJSON(c echo.Context, err error, kind string) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": kind + " not found"})
	case errors.Is(err, ledger.ErrAlreadyFinalized):
		return c.JSON(http.StatusConflict, echo.Map{"error": kind + " already decided"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient funds"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not decide " + kind})
	}
}

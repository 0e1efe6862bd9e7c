package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, verified, pendingDeposits, pendingWithdrawals, pendingKYC, openTrades int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE verified`).Scan(&verified)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM deposits WHERE status = 'pending'`).Scan(&pendingDeposits)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'`).Scan(&pendingWithdrawals)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM kyc_submissions WHERE status = 'pending'`).Scan(&pendingKYC)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE result = 'PENDING'`).Scan(&openTrades)

	var stakedVolume, settledProfit string
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(stake), 0)::text FROM trades`).Scan(&stakedVolume)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(profit), 0)::text FROM trades WHERE result <> 'PENDING'`).Scan(&settledProfit)

	return c.JSON(http.StatusOK, echo.Map{
		"users":               users,
		"verified_users":      verified,
		"pending_deposits":    pendingDeposits,
		"pending_withdrawals": pendingWithdrawals,
		"pending_kyc":         pendingKYC,
		"open_trades":         openTrades,
		"staked_volume":       stakedVolume,
		"settled_profit":      settledProfit,
	})
}

package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/trade"
)

// GET /admin/trades
func ListTrades(c echo.Context) error {
	query := `SELECT ` + trade.SelectColumns + ` FROM trades`
	args := []any{}
	if result := c.QueryParam("result"); result != "" {
		query += ` WHERE result = $1`
		args = append(args, result)
	}
	query += ` ORDER BY opened_at DESC LIMIT 500`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch trades"})
	}
	defer rows.Close()

	trades, err := trade.ScanTrades(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read trade record"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trades": trades})
}

package trade

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

// MyTrades lists the caller's positions, newest first. Narrow with
// ?result=PENDING|WIN|LOSE.
func MyTrades(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := context.Background()

	query := `SELECT ` + SelectColumns + ` FROM trades WHERE user_id = $1`
	args := []any{userID}
	if result := c.QueryParam("result"); result != "" {
		query += ` AND result = $2`
		args = append(args, result)
	}
	query += ` ORDER BY opened_at DESC LIMIT 200`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list trades"})
	}
	defer rows.Close()

	trades, err := ScanTrades(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list trades"})
	}
	return c.JSON(http.StatusOK, echo.Map{"trades": trades})
}

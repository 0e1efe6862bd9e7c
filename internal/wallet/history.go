package wallet

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

type HistoryEntry struct {
	ID        string    `json:"id"`
	Coin      string    `json:"coin"`
	Amount    string    `json:"amount"`
	PriceUSD  string    `json:"price_usd"`
	CreatedAt time.Time `json:"created_at"`
}

// History returns the caller's balance snapshots, newest first. Each row is
// the balance after a settlement touched it, with the USD price at that
// moment. Narrow to one coin with ?coin=BTC.
func History(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := context.Background()

	query := `
		SELECT id::text, coin, amount::text, price_usd::text, created_at
		FROM balance_history
		WHERE user_id = $1
	`
	args := []any{userID}
	if coin := c.QueryParam("coin"); coin != "" {
		query += ` AND coin = $2`
		args = append(args, strings.ToUpper(coin))
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load history"})
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Coin, &e.Amount, &e.PriceUSD, &e.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load history"})
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load history"})
	}

	return c.JSON(http.StatusOK, echo.Map{"history": entries})
}

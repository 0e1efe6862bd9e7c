package wallet

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/market"
)

type BalanceEntry struct {
	Coin     string          `json:"coin"`
	Amount   decimal.Decimal `json:"amount"`
	Earn     decimal.Decimal `json:"earn"`
	USDValue decimal.Decimal `json:"usd_value"`
}

// Balances returns the authenticated user's balances across all coins,
// including earn positions and USD valuations.
func Balances(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()
	rows, err := db.Conn.Query(ctx, `
		SELECT b.coin, b.amount::text, COALESCE(e.amount, 0)::text
		FROM balances b
		LEFT JOIN earn_positions e ON e.user_id = b.user_id AND e.coin = b.coin
		WHERE b.user_id = $1
		ORDER BY b.coin
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch balances"})
	}
	defer rows.Close()

	var entries []BalanceEntry
	for rows.Next() {
		var coin, rawAmount, rawEarn string
		if err := rows.Scan(&coin, &rawAmount, &rawEarn); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bad balance value"})
		}
		earn, err := decimal.NewFromString(rawEarn)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bad earn value"})
		}
		entries = append(entries, BalanceEntry{Coin: coin, Amount: amount, Earn: earn})
	}

	// Price lookups after the DB work, one per coin
	total := decimal.Zero
	for i := range entries {
		price := market.Price(ctx, entries[i].Coin)
		entries[i].USDValue = entries[i].Amount.Add(entries[i].Earn).Mul(price)
		total = total.Add(entries[i].USDValue)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"balances":  entries,
		"total_usd": total,
	})
}

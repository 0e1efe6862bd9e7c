package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

type AdminBalance struct {
	Coin      string    `json:"coin"`
	Amount    string    `json:"amount"`
	Earn      string    `json:"earn"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GET /admin/users/:id/balances
func ListUserBalances(c echo.Context) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	rows, err := db.Conn.Query(context.Background(), `
		SELECT b.coin, b.amount::text, COALESCE(e.amount, 0)::text, b.updated_at
		FROM balances b
		LEFT JOIN earn_positions e ON e.user_id = b.user_id AND e.coin = b.coin
		WHERE b.user_id = $1
		ORDER BY b.coin
	`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch balances"})
	}
	defer rows.Close()

	var balances []AdminBalance
	for rows.Next() {
		var b AdminBalance
		if err := rows.Scan(&b.Coin, &b.Amount, &b.Earn, &b.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read balance record"})
		}
		balances = append(balances, b)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": userID, "balances": balances})
}

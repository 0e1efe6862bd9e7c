package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/trade"
)

type tradeModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// GET /admin/trade-mode
func GetTradeMode(c echo.Context) error {
	var mode string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT value FROM settings WHERE key = 'trade_mode'`).Scan(&mode)
	if err != nil {
		mode = trade.ModeAuto
	}
	return c.JSON(http.StatusOK, echo.Map{"mode": mode})
}

// PUT /admin/trade-mode
//
// Sets the platform-wide settlement bias. ALL_WIN and ALL_LOSE override the
// market for every user without a per-user mode; AUTO settles honestly.
func SetTradeMode(c echo.Context) error {
	var req tradeModeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	mode := strings.ToUpper(strings.TrimSpace(req.Mode))
	if mode != trade.ModeAuto && mode != trade.ModeAllWin && mode != trade.ModeAllLose {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode must be AUTO, ALL_WIN or ALL_LOSE"})
	}

	_, err := db.Conn.Exec(context.Background(), `
		INSERT INTO settings (key, value) VALUES ('trade_mode', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, mode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update trade mode"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "trade mode updated", "mode": mode})
}

// PUT /admin/users/:id/trade-mode
//
// Pins one user's settlements to WIN or LOSE regardless of the platform
// setting.
func SetUserTradeMode(c echo.Context) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req tradeModeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	mode := strings.ToUpper(strings.TrimSpace(req.Mode))
	if mode != trade.ModeWin && mode != trade.ModeLose {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode must be WIN or LOSE"})
	}

	ctx := context.Background()
	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not set user trade mode"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	_, err := db.Conn.Exec(ctx, `
		INSERT INTO trade_modes (user_id, mode) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode, updated_at = NOW()
	`, userID, mode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not set user trade mode"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user trade mode set", "user_id": userID, "mode": mode})
}

// DELETE /admin/users/:id/trade-mode
func ClearUserTradeMode(c echo.Context) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	_, err := db.Conn.Exec(context.Background(),
		`DELETE FROM trade_modes WHERE user_id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not clear user trade mode"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user trade mode cleared", "user_id": userID})
}

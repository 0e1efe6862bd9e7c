package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/user"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var u user.User
	var avatarURL *string
	err := db.Conn.QueryRow(context.Background(), `
		SELECT id, name, email, role, verified, kyc_status, avatar_url, is_active, created_at
		FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Verified, &u.KYCStatus,
		&avatarURL, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	return c.JSON(http.StatusOK, u)
}

package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

// GET /user/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var (
		id, name  string
		avatarURL *string
		kycStatus string
		createdAt time.Time
	)

	query := `
		SELECT id, name, avatar_url, kyc_status, created_at
		FROM users
		WHERE id = $1
	`
	err := db.Conn.QueryRow(context.Background(), query, userID).Scan(
		&id, &name, &avatarURL, &kycStatus, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	profile := echo.Map{
		"id":           id,
		"name":         name,
		"kyc_verified": kycStatus == "approved",
		"created_at":   createdAt.UTC().Format(time.RFC3339),
	}
	if avatarURL != nil {
		profile["avatar_url"] = *avatarURL
	}
	return c.JSON(http.StatusOK, profile)
}

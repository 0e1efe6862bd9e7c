package user

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/storage"
)

// UploadAvatar stores a profile picture and persists its URL.
// Expects a multipart form with an "avatar" file field.
func UploadAvatar(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar file required"})
	}

	url, err := storage.SaveUpload(fh, "avatars")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	_, err = db.Conn.Exec(context.Background(),
		`UPDATE users SET avatar_url = $1 WHERE id = $2`, url, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save avatar"})
	}

	return c.JSON(http.StatusOK, echo.Map{"avatar_url": url})
}

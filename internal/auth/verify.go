package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/utils"
)

type VerifyRequest struct {
	Code string `json:"code" validate:"required"`
}

// VerifyEmail checks the submitted code and marks the account verified
func VerifyEmail(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(VerifyRequest)
	if err := c.Bind(req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}

	ctx := context.Background()

	var code string
	var expiresAt time.Time
	err := db.Conn.QueryRow(ctx, `
		SELECT code, expires_at FROM email_verifications WHERE user_id = $1
	`, userID).Scan(&code, &expiresAt)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no pending verification"})
	}
	if time.Now().After(expiresAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code expired, request a new one"})
	}
	if req.Code != code {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE users SET verified = TRUE WHERE id = $1`, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if _, err := tx.Exec(ctx, `DELETE FROM email_verifications WHERE user_id = $1`, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "email verified"})
}

// ResendCode issues a fresh verification code to an unverified account
func ResendCode(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := context.Background()

	var email, name string
	var verified bool
	err := db.Conn.QueryRow(ctx, `
		SELECT email, name, verified FROM users WHERE id = $1
	`, userID).Scan(&email, &name, &verified)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if verified {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
	}

	code, err := utils.RandomCode(6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	_, err = db.Conn.Exec(ctx, `
		INSERT INTO email_verifications (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET code = $2, expires_at = $3, created_at = NOW()
	`, userID, code, time.Now().Add(verifyCodeTTL))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue code"})
	}

	_ = alerts.EnqueueVerifyEmail(userID, email, name, code)

	return c.JSON(http.StatusOK, echo.Map{"message": "verification code sent"})
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
)

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RequestPasswordResetResponse struct {
	Message string `json:"message"`
}

const passwordResetTTL = 30 * time.Minute

// POST /auth/password/request
// Always responds with a generic message to avoid user enumeration.
func RequestPasswordReset(c echo.Context) error {
	generic := RequestPasswordResetResponse{Message: "If the email exists, a reset link has been sent."}

	req := new(RequestPasswordResetRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusOK, generic)
	}

	var userID, name string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(req.Email)),
	).Scan(&userID, &name)
	if err != nil || userID == "" {
		return c.JSON(http.StatusOK, generic)
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": "password_reset",
		"exp":     time.Now().Add(passwordResetTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, signErr := token.SignedString([]byte(config.App.JWTSecret))
	if signErr != nil {
		return c.JSON(http.StatusOK, generic)
	}

	base := strings.TrimRight(config.App.PublicBaseURL, "/")
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", base, url.QueryEscape(signed))

	_ = alerts.EnqueuePasswordReset(userID, req.Email, resetURL, name)

	return c.JSON(http.StatusOK, generic)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// POST /auth/password/reset
func ResetPassword(c echo.Context) error {
	req := new(ResetPasswordRequest)
	if err := c.Bind(req); err != nil || req.Token == "" || len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	parsed, err := jwt.Parse(req.Token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(config.App.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token claims"})
	}
	if purpose, _ := claims["purpose"].(string); purpose != "password_reset" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token purpose"})
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token subject"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET password = $1 WHERE id = $2`, string(hashed), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update password"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated successfully"})
}

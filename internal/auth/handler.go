package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/market"
	"github.com/sudo-init-do/tradebit/internal/utils"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

const verifyCodeTTL = 15 * time.Minute

// ===== Signup =====
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || !strings.Contains(req.Email, "@") || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, valid email and a password of at least 6 characters are required"})
	}

	// Hash password
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	conn := db.Conn
	ctx := context.Background()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, role)
		VALUES ($1, $2, $3, $4, 'user')
		RETURNING id
	`, uuid.New().String(), req.Name, req.Email, string(hashed)).Scan(&userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	}

	// Zero balance rows for the supported coin set
	for _, coin := range market.Coins {
		if _, err = tx.Exec(ctx, `
			INSERT INTO balances (user_id, coin, amount)
			VALUES ($1, $2, 0)
		`, userID, coin); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "balance creation failed"})
		}
	}

	// Verification code, emailed after commit
	code, err := utils.RandomCode(6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO email_verifications (user_id, code, expires_at)
		VALUES ($1, $2, $3)
	`, userID, code, time.Now().Add(verifyCodeTTL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification setup failed"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	// Best-effort notifications
	_ = alerts.EnqueueWelcomeEmail(userID, req.Email, req.Name)
	_ = alerts.EnqueueVerifyEmail(userID, req.Email, req.Name, code)

	// JWT with user_id
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "user",
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.App.JWTSecret))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, SignupResponse{Token: signed})
}

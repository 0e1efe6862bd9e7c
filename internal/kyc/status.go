package kyc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

// Status returns the caller's verification state and their latest submission,
// if any.
func Status(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := context.Background()

	var kycStatus string
	if err := db.Conn.QueryRow(ctx,
		`SELECT kyc_status FROM users WHERE id = $1`, userID,
	).Scan(&kycStatus); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load status"})
	}

	var (
		id          string
		docType     string
		subStatus   string
		reason      *string
		submittedAt time.Time
		reviewedAt  *time.Time
	)
	err := db.Conn.QueryRow(ctx, `
		SELECT id::text, document_type, status, reason, submitted_at, reviewed_at
		FROM kyc_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT 1
	`, userID).Scan(&id, &docType, &subStatus, &reason, &submittedAt, &reviewedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusOK, echo.Map{"kyc_status": kycStatus, "submission": nil})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load status"})
	}

	submission := echo.Map{
		"id":            id,
		"document_type": docType,
		"status":        subStatus,
		"submitted_at":  submittedAt,
	}
	if reason != nil {
		submission["reason"] = *reason
	}
	if reviewedAt != nil {
		submission["reviewed_at"] = *reviewedAt
	}
	return c.JSON(http.StatusOK, echo.Map{"kyc_status": kycStatus, "submission": submission})
}

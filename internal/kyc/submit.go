package kyc

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
	"github.com/sudo-init-do/tradebit/internal/storage"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Submit accepts a multipart identity submission: id_number and
// document_type fields plus front and back document images. A user with an
// approved or still-pending submission cannot file another one.
func Submit(c echo.Context) error {
	userIDStr, ok := c.Get("user_id").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := context.Background()

	var current string
	if err := db.Conn.QueryRow(ctx,
		`SELECT kyc_status FROM users WHERE id = $1`, userID,
	).Scan(&current); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit"})
	}
	switch current {
	case StatusApproved:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identity already verified"})
	case StatusPending:
		return c.JSON(http.StatusConflict, echo.Map{"error": "a submission is already pending review"})
	}

	idNumber := strings.TrimSpace(c.FormValue("id_number"))
	docType := strings.TrimSpace(c.FormValue("document_type"))
	if idNumber == "" || docType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id_number and document_type are required"})
	}

	front, err := c.FormFile("front")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "front document image is required"})
	}
	back, err := c.FormFile("back")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "back document image is required"})
	}

	frontURL, err := storage.SaveUpload(front, "kyc")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	backURL, err := storage.SaveUpload(back, "kyc")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit"})
	}
	defer tx.Rollback(ctx)

	submissionID := uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO kyc_submissions (id, user_id, id_number, document_type, front_url, back_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
	`, submissionID, userID, idNumber, docType, frontURL, backURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit"})
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET kyc_status = 'pending' WHERE id = $1`, userID,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not submit"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "submission received, review usually takes one business day",
		"submission_id": submissionID,
		"status":        StatusPending,
	})
}

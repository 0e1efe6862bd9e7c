package kyc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/alerts"
	"github.com/sudo-init-do/tradebit/internal/db"
)

// ListPending returns the review queue, oldest first, with enough user
// context for an admin to act on each submission.
func ListPending(c echo.Context) error {
	ctx := context.Background()

	rows, err := db.Conn.Query(ctx, `
		SELECT s.id::text, s.user_id::text, u.name, u.email, s.id_number,
		       s.document_type, s.front_url, s.back_url, s.submitted_at
		FROM kyc_submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'pending'
		ORDER BY s.submitted_at ASC
	`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list submissions"})
	}
	defer rows.Close()

	type pendingSubmission struct {
		ID           string    `json:"id"`
		UserID       string    `json:"user_id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		IDNumber     string    `json:"id_number"`
		DocumentType string    `json:"document_type"`
		FrontURL     string    `json:"front_url"`
		BackURL      string    `json:"back_url"`
		SubmittedAt  time.Time `json:"submitted_at"`
	}
	submissions := []pendingSubmission{}
	for rows.Next() {
		var s pendingSubmission
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &s.IDNumber,
			&s.DocumentType, &s.FrontURL, &s.BackURL, &s.SubmittedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list submissions"})
		}
		submissions = append(submissions, s)
	}
	if rows.Err() != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list submissions"})
	}

	return c.JSON(http.StatusOK, echo.Map{"submissions": submissions})
}

func Approve(c echo.Context) error { return review(c, true) }
func Reject(c echo.Context) error  { return review(c, false) }

type reviewRequest struct {
	Reason string `json:"reason"`
}

// review flips a pending submission to approved or rejected and mirrors the
// decision onto users.kyc_status. The status guard on the UPDATE makes a
// second review of the same submission a 409.
func review(c echo.Context, approve bool) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid submission id"})
	}

	var req reviewRequest
	_ = c.Bind(&req)
	req.Reason = strings.TrimSpace(req.Reason)
	if !approve && req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a reason is required to reject"})
	}

	newStatus := StatusRejected
	if approve {
		newStatus = StatusApproved
	}
	var reason *string
	if req.Reason != "" {
		reason = &req.Reason
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not review submission"})
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		UPDATE kyc_submissions SET status = $2, reason = $3, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING user_id
	`, id, newStatus, reason).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		var current string
		if lookupErr := db.Conn.QueryRow(ctx,
			`SELECT status FROM kyc_submissions WHERE id = $1`, id,
		).Scan(&current); errors.Is(lookupErr, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "submission not found"})
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "submission already reviewed"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not review submission"})
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET kyc_status = $2 WHERE id = $1`, userID, newStatus,
	); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not review submission"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not review submission"})
	}

	var email string
	if err := db.Conn.QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`, userID,
	).Scan(&email); err == nil {
		_ = alerts.EnqueueKYCDecision(userID.String(), email, newStatus, req.Reason)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "submission " + newStatus,
		"status":  newStatus,
	})
}

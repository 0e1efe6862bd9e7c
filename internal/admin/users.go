package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/tradebit/internal/db"
)

type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	KYCStatus string    `json:"kyc_status"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	ctx := context.Background()

	rows, err := db.Conn.Query(ctx, `
		SELECT id, name, email, role, verified, kyc_status, is_active, created_at
		FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Verified,
			&u.KYCStatus, &u.IsActive, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/suspend
func SuspendUser(c echo.Context) error {
	return setActive(c, false, "user suspended")
}

// POST /admin/users/:id/activate
func ActivateUser(c echo.Context) error {
	return setActive(c, true, "user activated")
}

func setActive(c echo.Context, active bool, message string) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	tag, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_active = $2 WHERE id = $1`, userID, active)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "user_id": userID})
}

// DELETE /admin/users/:id
//
// Removes the account and everything hanging off it. Pending trades go with
// the account; settlement tasks for them no-op once the rows are gone.
func DeleteUser(c echo.Context) error {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := context.Background()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{
		"trades", "deposits", "withdrawals", "earn_positions", "trade_modes",
		"balance_history", "email_verifications", "kyc_submissions", "balances",
	} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted", "user_id": userID})
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard allows only admins through. It runs after JWTMiddleware, which
// put the caller's role on the context; a missing role means no identity at
// all, which is a 401 rather than a 403.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(string)
		if !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		if role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}

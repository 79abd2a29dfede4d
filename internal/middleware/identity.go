package middleware

// identity.go provides accessors for the claims JWTAuth stores in the
// Echo context, shared by middleware and handlers.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Subject returns the authenticated subject (roll number or volunteer
// ID string), or "" when the request is unauthenticated.
func Subject(c echo.Context) string {
	if s, ok := c.Get("subject").(string); ok {
		return s
	}
	return ""
}

// Role returns the authenticated role claim, or "" when absent.
func Role(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// VolunteerID parses the subject as a staff account ID. Zero means the
// caller is not a staff account.
func VolunteerID(c echo.Context) uint64 {
	id, err := strconv.ParseUint(Subject(c), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

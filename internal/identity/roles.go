package identity

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/domain"
	"github.com/quickdesk/quickdesk/pkg/util/errorutil"
)

// RequireStaff restricts a route to agents and admins.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)
		if principal == nil {
			return errorutil.NewUnauthorized("authentication required")
		}
		if !principal.Role.IsStaff() {
			return errorutil.NewForbidden("staff access required")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to admins.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromContext(c)
		if principal == nil {
			return errorutil.NewUnauthorized("authentication required")
		}
		if principal.Role != domain.RoleAdmin {
			return errorutil.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

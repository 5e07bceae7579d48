package middleware

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/gofiber/fiber/v2"
)

const roleKey = "role"

// RoleLookup resolves the role of a verified caller.
type RoleLookup interface {
	RoleOf(ctx context.Context, p *identity.Principal) (string, error)
}

// RoleRequired admits callers holding one of roles. It must run after
// VerifyIdentity.
func RoleRequired(lookup RoleLookup, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p == nil {
			return apperr.New(apperr.Unauthenticated, "Unauthorized")
		}

		role, err := lookup.RoleOf(c.UserContext(), p)
		if err != nil {
			return err
		}
		if !contains(roles, role) {
			return apperr.New(apperr.Forbidden, strings.Join(roles, " or ")+" access required")
		}

		c.Locals(roleKey, role)
		return c.Next()
	}
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}

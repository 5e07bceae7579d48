package middleware

import (
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey     = "identity_token"
	principalKey = "principal"
)

// VerifyIdentity requires a provider-issued bearer token and stores the
// verified caller under c.Locals("principal").
func VerifyIdentity(v *identity.Verifier) fiber.Handler {
	return jwtware.New(jwtware.Config{
		KeyFunc:     v.Keyfunc,
		ContextKey:  tokenKey,
		TokenLookup: "header:" + fiber.HeaderAuthorization,
		AuthScheme:  "Bearer",
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenKey).(*jwt.Token)
			if !ok || token == nil {
				return apperr.New(apperr.InvalidCredential, "Unauthorized: Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return apperr.New(apperr.InvalidCredential, "Unauthorized: Invalid claims")
			}
			p, err := v.Principal(claims)
			if err != nil {
				return apperr.Wrap(apperr.InvalidCredential, "Unauthorized: Invalid token", err)
			}
			c.Locals(principalKey, p)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if c.Get(fiber.HeaderAuthorization) == "" {
				return apperr.Wrap(apperr.Unauthenticated, "Unauthorized: No token", err)
			}
			switch identity.Classify(err) {
			case identity.ErrProviderTimeout:
				return apperr.Wrap(apperr.ProviderTimeout, "Identity provider timed out", err)
			case identity.ErrProviderUnavailable:
				return apperr.Wrap(apperr.ProviderUnavailable, "Identity provider unavailable", err)
			}
			return apperr.Wrap(apperr.InvalidCredential, "Unauthorized: Invalid token", err)
		},
	})
}

// PrincipalFrom returns the verified caller, or nil on unprotected routes.
func PrincipalFrom(c *fiber.Ctx) *identity.Principal {
	p, _ := c.Locals(principalKey).(*identity.Principal)
	return p
}

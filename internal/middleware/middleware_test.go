package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity/identitytest"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kindStatus renders errors as status code plus the kind in a header so
// tests can assert both without the full envelope.
func kindStatus(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	c.Set("X-Error-Kind", string(kind))
	return c.SendStatus(apperr.Status(kind))
}

type roleTable map[string]string

func (r roleTable) RoleOf(_ context.Context, p *identity.Principal) (string, error) {
	if role, ok := r[p.UID]; ok {
		return role, nil
	}
	if p.UID == "broken" {
		return "", apperr.New(apperr.StoreUnavailable, "Database unavailable")
	}
	return "user", nil
}

func newApp(t *testing.T) (*fiber.App, *identitytest.Issuer) {
	t.Helper()
	iss := identitytest.NewIssuer(t, "proj")
	v := identity.NewVerifier("proj", identity.NewKeySet(iss.URL(), time.Second), time.Second)
	roles := roleTable{"uid-admin": "admin", "uid-ed": "editor"}

	app := fiber.New(fiber.Config{ErrorHandler: kindStatus})
	app.Get("/me", VerifyIdentity(v), func(c *fiber.Ctx) error {
		return c.SendString(PrincipalFrom(c).UID)
	})
	app.Get("/admin", VerifyIdentity(v), RoleRequired(roles, "admin"), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(roleKey).(string))
	})
	app.Get("/moderate", VerifyIdentity(v), RoleRequired(roles, "admin", "editor"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/open", RoleRequired(roles, "admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, iss
}

func get(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestVerifyIdentity(t *testing.T) {
	app, iss := newApp(t)

	resp := get(t, app, "/me", iss.Token(t, "uid-1", "a@x.com"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, string(apperr.Unauthenticated), resp.Header.Get("X-Error-Kind"))

	resp = get(t, app, "/me", "abc.def.ghi")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, string(apperr.InvalidCredential), resp.Header.Get("X-Error-Kind"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, string(apperr.InvalidCredential), resp.Header.Get("X-Error-Kind"))
}

func TestVerifyIdentity_ProviderDown(t *testing.T) {
	app, iss := newApp(t)
	token := iss.Token(t, "uid-1", "a@x.com")
	iss.FailWith(http.StatusInternalServerError)

	resp := get(t, app, "/me", token)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, string(apperr.ProviderUnavailable), resp.Header.Get("X-Error-Kind"))
}

func TestRoleRequired(t *testing.T) {
	app, iss := newApp(t)

	tests := []struct {
		path   string
		uid    string
		status int
	}{
		{"/admin", "uid-admin", http.StatusOK},
		{"/admin", "uid-ed", http.StatusForbidden},
		{"/admin", "uid-1", http.StatusForbidden},
		{"/moderate", "uid-ed", http.StatusNoContent},
		{"/moderate", "uid-admin", http.StatusNoContent},
		{"/moderate", "uid-1", http.StatusForbidden},
		{"/admin", "broken", http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.path+"/"+tc.uid, func(t *testing.T) {
			resp := get(t, app, tc.path, iss.Token(t, tc.uid, tc.uid+"@x.com"))
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	resp := get(t, app, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(&config.Config{CORSOrigins: "http://localhost:3000"}))
	app.Use(SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestPrincipalFrom_Unset(t *testing.T) {
	app := fiber.New()
	var got *identity.Principal
	app.Get("/", func(c *fiber.Ctx) error {
		got = PrincipalFrom(c)
		return nil
	})
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

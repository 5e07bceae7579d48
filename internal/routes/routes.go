package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	verifier *identity.Verifier,
	roles middleware.RoleLookup,
	userHandler *handlers.UserHandler,
	postHandler *handlers.PostHandler,
	healthHandler *handlers.HealthHandler,
) {
	// Liveness and health stay outside the rate limits.
	app.Get("/", healthHandler.Root)
	app.Get("/api/health", healthHandler.Check)

	// General rate limiter: 60 req/min per IP
	app.Use(rateLimit(60))

	// Submissions: 10 req/min per IP (stricter)
	submit := rateLimit(10)

	auth := middleware.VerifyIdentity(verifier)
	admin := middleware.RoleRequired(roles, models.RoleAdmin)
	editor := middleware.RoleRequired(roles, models.RoleAdmin, models.RoleEditor)

	// Public reads
	app.Get("/post/:category", postHandler.ListByCategory)
	app.Get("/api/news/details/:id", postHandler.Details)

	// Any verified caller
	app.Post("/register", submit, auth, userHandler.Register)
	app.Post("/api/post-news", submit, auth, postHandler.Create)
	app.Get("/singleUser/:displayName", auth, userHandler.GetByDisplayName)

	// Moderators see unpublished posts too
	app.Get("/all-post", auth, editor, postHandler.List)

	// Administration
	app.Get("/users", auth, admin, userHandler.List)
	app.Delete("/user_delete/:id", auth, admin, userHandler.Delete)
	app.Delete("/api/post-delete/:id", auth, admin, postHandler.Delete)
	app.Patch("/user-role/:_id", auth, admin, userHandler.UpdateRole)
	app.Patch("/api/update-post-status/:_id", auth, admin, postHandler.UpdateStatus)

	app.Use(func(c *fiber.Ctx) error {
		return apperr.New(apperr.NotFound, "Route not found: "+c.Method()+" "+c.Path())
	})
}

func rateLimit(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return apperr.New(apperr.RateLimited, "Too many requests, slow down")
		},
	})
}

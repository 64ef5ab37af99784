package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/quickdesk/quickdesk/internal/api/http/handlers"
	"github.com/quickdesk/quickdesk/internal/identity"
)

// Router holds every handler and registers the route table.
type Router struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Tickets    *handlers.TicketHandler
	Categories *handlers.CategoryHandler
	Users      *handlers.UserHandler

	Authenticate fiber.Handler
}

// Register wires all routes onto the app. Role gates sit on the route,
// never inside handlers.
func (r *Router) Register(app *fiber.App) {
	app.Get("/health/live", r.Health.Live)
	app.Get("/health/ready", r.Health.Ready)

	auth := app.Group("/auth")
	auth.Post("/login", r.Auth.Login)
	auth.Get("/profile", r.Authenticate, r.Auth.Profile)
	auth.Put("/profile", r.Authenticate, r.Auth.UpdateProfile)

	tickets := app.Group("/tickets", r.Authenticate)
	tickets.Post("/", r.Tickets.Create)
	tickets.Get("/", r.Tickets.List)
	tickets.Get("/:id", r.Tickets.Get)
	tickets.Put("/:id", identity.RequireStaff(), r.Tickets.Update)
	tickets.Post("/:id/comments", r.Tickets.AddComment)
	tickets.Post("/:id/vote", r.Tickets.Vote)
	tickets.Get("/:id/attachments/:attachmentID", r.Tickets.DownloadAttachment)

	categories := app.Group("/categories", r.Authenticate)
	categories.Get("/", r.Categories.List)
	categories.Get("/stats", identity.RequireAdmin(), r.Categories.Stats)
	categories.Get("/:id", r.Categories.Get)
	categories.Post("/", identity.RequireAdmin(), r.Categories.Create)
	categories.Put("/:id", identity.RequireAdmin(), r.Categories.Update)
	categories.Delete("/:id", identity.RequireAdmin(), r.Categories.Deactivate)

	users := app.Group("/users", r.Authenticate, identity.RequireAdmin())
	users.Get("/", r.Users.List)
	users.Get("/stats", r.Users.Stats)
	users.Get("/:id", r.Users.Get)
	users.Put("/:id/role", r.Users.ChangeRole)
	users.Put("/:id/status", r.Users.SetActivation)
	users.Delete("/:id", r.Users.Deactivate)
}

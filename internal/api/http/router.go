package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/pengaduan-service/internal/api/http/handlers"
	"github.com/spec-kit/pengaduan-service/internal/auth"
	"github.com/spec-kit/pengaduan-service/internal/domain"
	apperrors "github.com/spec-kit/pengaduan-service/pkg/util"
)

// RouterDependencies bundles the handlers and middleware the route table
// needs.
type RouterDependencies struct {
	Health     *handlers.HealthHandler
	Users      *handlers.UsersHandler
	Complaints *handlers.ComplaintsHandler
	Reports    *handlers.ReportsHandler
	Auth       *auth.AuthMiddleware
	UploadDir  string
}

// RegisterRoutes wires the full route table.
func RegisterRoutes(app *fiber.App, deps RouterDependencies) {
	app.Get("/", deps.Health.Live)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// uploaded complaint photos are served as static files
	app.Static("/uploads", deps.UploadDir)

	api := app.Group("/api")
	api.Get("/health", deps.Health.Live)
	api.Get("/health/ready", deps.Health.Ready)

	users := api.Group("/users")
	users.Post("/register", deps.Users.Register)
	users.Post("/login", deps.Users.Login)
	users.Get("/profile", deps.Auth.Handle, deps.Users.GetProfile)
	users.Put("/profile", deps.Auth.Handle, deps.Users.UpdateProfile)
	// static segments must register before the /:id wildcard
	users.Get("/roles/list", deps.Users.Roles)
	users.Get("/stats/summary", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Users.Stats)
	users.Get("/", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Users.List)
	users.Get("/:id", deps.Auth.Handle, auth.RequireOwnerOrAdmin(), deps.Users.GetByID)
	users.Put("/:id", deps.Auth.Handle, auth.RequireOwnerOrAdmin(), deps.Users.Update)
	users.Put("/:id/password", deps.Auth.Handle, auth.RequireOwnerOrAdmin(), deps.Users.UpdatePassword)
	users.Delete("/:id", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Users.Delete)

	pengaduan := api.Group("/pengaduan")
	pengaduan.Get("/stats", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Complaints.Stats)
	pengaduan.Get("/kategori/list", deps.Complaints.Categories)
	pengaduan.Get("/status/list", deps.Complaints.Statuses)
	pengaduan.Post("/", deps.Auth.HandleOptional, deps.Complaints.Create)
	pengaduan.Get("/", deps.Auth.HandleOptional, deps.Complaints.List)
	pengaduan.Get("/:id", deps.Auth.HandleOptional, deps.Complaints.GetByID)
	pengaduan.Put("/:id/status", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Complaints.UpdateStatus)
	pengaduan.Put("/:id", deps.Auth.Handle, deps.Complaints.Update)
	pengaduan.Delete("/:id", deps.Auth.Handle, auth.RequireRole(domain.RoleAdmin), deps.Complaints.Delete)

	laporan := api.Group("/user/laporan", deps.Auth.Handle)
	laporan.Post("/", deps.Reports.Create)
	laporan.Get("/", deps.Reports.List)
	laporan.Get("/stats", deps.Reports.Stats)
	laporan.Get("/:id", deps.Reports.GetByID)
	laporan.Put("/:id", deps.Reports.Update)
	laporan.Delete("/:id", deps.Reports.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("Endpoint tidak ditemukan")
	})
}

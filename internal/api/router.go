package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/localspace/internal/api/handlers"
	"github.com/hugh/localspace/internal/api/middleware"
	"github.com/hugh/localspace/internal/auth"
	"github.com/hugh/localspace/internal/blog"
	"github.com/hugh/localspace/internal/ratelimit"
	"github.com/hugh/localspace/internal/workspace"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB     *gorm.DB
	Redis  *redis.Client // optional, only reported by /health
	Logger *slog.Logger

	Auth       *auth.Service
	Workspaces *workspace.Service
	Blogs      *blog.Service

	// GlobalLimiter is applied per client IP to every request when set.
	GlobalLimiter  *ratelimit.SlidingWindow
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.GlobalLimiter != nil {
		r.Use(middleware.RateLimit(cfg.GlobalLimiter))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.Auth, cfg.Logger)
	workspaceHandler := handlers.NewWorkspaceHandler(cfg.Workspaces, cfg.Logger)
	blogHandler := handlers.NewBlogHandler(cfg.Blogs, cfg.Logger)

	requireAuth := middleware.Auth(cfg.Auth, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/verify", authHandler.Verify)
			r.Post("/verify/resend", authHandler.ResendVerification)
			r.Post("/password/forgot", authHandler.ForgotPassword)
			r.Post("/password/reset", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/signout", authHandler.SignOut)
				r.Get("/profile", authHandler.Profile)
				r.Post("/password/update", authHandler.UpdatePassword)
			})
		})

		r.Route("/workspace", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", workspaceHandler.List)
			r.Post("/", workspaceHandler.Create)

			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.Get)
				r.Put("/", workspaceHandler.Update)
				r.Delete("/", workspaceHandler.Delete)
				r.Post("/transfer", workspaceHandler.Transfer)

				r.Post("/member", workspaceHandler.AddMember)
				r.Put("/member/{memberID}", workspaceHandler.UpdateMember)
				r.Delete("/member/{memberID}", workspaceHandler.RemoveMember)

				r.Get("/profile", workspaceHandler.Profile)
				r.Post("/profile/leave", workspaceHandler.Leave)

				r.Route("/blog", func(r chi.Router) {
					r.Get("/", blogHandler.List)
					r.Post("/", blogHandler.Create)
					r.Get("/{blogID}", blogHandler.Get)
					r.Put("/{blogID}", blogHandler.Update)
					r.Delete("/{blogID}", blogHandler.Delete)
					r.Post("/{blogID}/publish", blogHandler.Publish)
					r.Post("/{blogID}/unpublish", blogHandler.Unpublish)
					r.Post("/{blogID}/archive", blogHandler.Archive)
				})
			})
		})
	})

	return &Router{r}
}

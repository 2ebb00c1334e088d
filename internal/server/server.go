// Package server assembles the HTTP API: repositories, services, handlers
// and the chi route table.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jobboard/jobboard-go/internal/config"
	"github.com/jobboard/jobboard-go/internal/crypto"
	"github.com/jobboard/jobboard-go/internal/handler"
	"github.com/jobboard/jobboard-go/internal/middleware"
	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/repository"
	"github.com/jobboard/jobboard-go/internal/service"
	"github.com/jobboard/jobboard-go/internal/storage"
)

const uploadsPrefix = "/uploads"

// Options are the dependencies of the API. Hasher and Logger default to
// crypto.DefaultHashParams and slog.Default; Notifier may be nil.
type Options struct {
	Config   config.Config
	DB       *sql.DB
	Resumes  *storage.LocalStore
	Notifier service.Notifier
	Hasher   *crypto.PasswordHasher
	Logger   *slog.Logger
}

// API is the routed HTTP handler. Close releases the rate limiter.
type API struct {
	http.Handler
	limiter *middleware.RateLimiter
}

// New wires the API.
func New(opts Options) *API {
	cfg := opts.Config
	if opts.Hasher == nil {
		opts.Hasher = crypto.NewPasswordHasher(crypto.DefaultHashParams())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	tokens := crypto.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	userRepo := repository.NewUserRepository(opts.DB)
	jobRepo := repository.NewJobRepository(opts.DB)
	appRepo := repository.NewApplicationRepository(opts.DB)

	authHandler := handler.NewAuthHandler(service.NewAuthService(userRepo, opts.Hasher, tokens))
	jobHandler := handler.NewJobHandler(service.NewJobService(jobRepo, opts.Resumes, cfg.FeaturedJobsLimit))
	appHandler := handler.NewApplicationHandler(
		service.NewApplicationService(appRepo, jobRepo, userRepo, opts.Resumes, opts.Notifier, cfg.ResumeMaxBytes),
		cfg.ResumeMaxBytes,
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
	authenticate := middleware.JWTAuth(tokens)
	employerOnly := middleware.RequireRole(model.RoleEmployer)
	candidateOnly := middleware.RequireRole(model.RoleCandidate)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle(uploadsPrefix+"/*", http.StripPrefix(uploadsPrefix, opts.Resumes.Handler()))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limiter.Handler)
				r.Post("/register", authHandler.HandleRegister)
				r.Post("/login", authHandler.HandleLogin)
			})
			r.With(authenticate).Get("/me", authHandler.HandleMe)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.HandleList)
			r.Get("/featured", jobHandler.HandleFeatured)
			r.Get("/{id}", jobHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, employerOnly)
				r.Post("/", jobHandler.HandleCreate)
				r.Get("/employer/me", jobHandler.HandleListMine)
				r.Put("/{id}", jobHandler.HandleUpdate)
				r.Delete("/{id}", jobHandler.HandleDelete)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Use(authenticate)

			r.Group(func(r chi.Router) {
				r.Use(candidateOnly)
				r.With(limiter.Handler).Post("/{id}/apply", appHandler.HandleApply)
				r.Get("/me", appHandler.HandleListMine)
			})

			r.Group(func(r chi.Router) {
				r.Use(employerOnly)
				r.Get("/employer/me", appHandler.HandleListReceived)
				r.Patch("/{id}/status", appHandler.HandleUpdateStatus)
			})
		})
	})

	return &API{Handler: r, limiter: limiter}
}

// Close stops background work started by New.
func (a *API) Close() {
	a.limiter.Close()
}

// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/omnierp/omnicore/internal/audit"
	"github.com/omnierp/omnicore/internal/auth"
	"github.com/omnierp/omnicore/internal/config"
	"github.com/omnierp/omnicore/internal/email"
	"github.com/omnierp/omnicore/internal/handler"
	"github.com/omnierp/omnicore/internal/middleware"
	"github.com/omnierp/omnicore/internal/repository"
	"github.com/omnierp/omnicore/internal/service"
	"github.com/omnierp/omnicore/internal/tenant"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   a.Key,
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	// The router owns every storage handle: it is constructed once here
	// and injected, never reached through package state.
	router, err := tenant.NewRouter(cfg.Tenancy.DataDir, cfg.Tenancy.MasterURL, logger)
	if err != nil {
		return fmt.Errorf("setting up tenant router: %w", err)
	}
	defer router.Close()

	provisioner := tenant.NewProvisioner(router, logger)
	sessions := tenant.NewSessionProvider(router, logger)
	auditor := audit.NewTenantRecorder(sessions, logger)

	// Bring the master registry up to the current schema
	if err := provisioner.ProvisionMaster(context.Background()); err != nil {
		return fmt.Errorf("migrating master registry: %w", err)
	}

	// Initialize repositories
	orgRepo := repository.NewOrganizationRepository(router.Master())
	userRepo := repository.NewUserRepository(router.Master())
	permRepo := repository.NewPermissionRepository()

	// Initialize auth services
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)

	// Initialize email service
	var emailSender email.Sender
	if cfg.Sendgrid.APIKey != "" {
		emailService, err := email.NewEmailService(cfg)
		if err != nil {
			return fmt.Errorf("initializing email service: %w", err)
		}
		emailSender = emailService
	}

	// Initialize services
	orgService := service.NewOrganizationService(
		orgRepo,
		userRepo,
		provisioner,
		auditor,
		tokenManager,
		emailSender,
		cfg,
	)
	permService := service.NewPermissionService(sessions, permRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(orgService)
	orgHandler := handler.NewOrganizationHandler(orgService, permService)
	productHandler := handler.NewProductHandler(sessions, permService)

	// Create router
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))

			r.Post("/auth/signup", authHandler.SignupHandler)
			r.Post("/auth/login", authHandler.LoginHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenManager))

			r.Route("/organization", func(r chi.Router) {
				r.Get("/", orgHandler.GetHandler)
				r.Post("/plan", orgHandler.ChangePlanHandler)
				r.Post("/suspend", orgHandler.SuspendHandler)
				r.Get("/permissions", orgHandler.PermissionsHandler)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.ListHandler)
				r.Post("/", productHandler.CreateHandler)
				r.Get("/{id}", productHandler.GetHandler)
			})
		})
	})

	// Create server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server error channel
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "data_dir", cfg.Tenancy.DataDir)
		serverErrors <- srv.ListenAndServe()
	}()

	// Shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)

	// Wait for shutdown or error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			// If shutdown times out, forcefully close
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"duration", time.Since(start),
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"requestID", chimw.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					err := errors.New("panic recovered")
					logger.Error("panic recovered",
						"error", err,
						"panic", rvr,
						"stack", string(debug.Stack()),
						"requestID", chimw.GetReqID(r.Context()),
					)

					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("{\"error\":\"error encountered\"}"))
					return
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rscoates/magic-library/internal/config"
	"github.com/rscoates/magic-library/internal/handlers"
	custommw "github.com/rscoates/magic-library/internal/middleware"
	"github.com/rscoates/magic-library/internal/observability"
	"github.com/rscoates/magic-library/internal/repository"
	"github.com/rscoates/magic-library/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig("magic-library", serviceVersion))
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}()

	logger := observability.GetLogger()

	var db *sql.DB
	if cfg.UsePostgres() {
		logger.Info("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		logger.Info("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewCardRepository(db)
	setRepo := repository.NewSetRepository(db)
	metadataRepo := repository.NewMetadataRepository(db)
	containerRepo := repository.NewContainerRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.TokenTTL(), cfg.Auth.Enabled, cfg.Auth.DefaultUsername)
	containerService := services.NewContainerService(containerRepo)
	collectionService := services.NewCollectionService(entryRepo, cardRepo, containerRepo, metadataRepo)
	binderService := services.NewBinderService(entryRepo, containerRepo)
	bulkService := services.NewBulkService(entryRepo, cardRepo, containerRepo, metadataRepo)
	decklistService := services.NewDecklistService(entryRepo, cardRepo, containerRepo, metadataRepo, collectionService)
	pricingService := services.NewPricingService(entryRepo, cardRepo, containerRepo, metadataRepo, cfg.DataDir, logger)

	if _, err := pricingService.Load(""); err != nil {
		logger.Warnf("Pricing data unavailable: %v", err)
	}

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}
	businessMetrics, err := observability.NewBusinessMetrics()
	if err != nil {
		log.Fatalf("Failed to create business metrics: %v", err)
	}

	authHandler := handlers.NewAuthHandler(authService, businessMetrics)
	cardHandler := handlers.NewCardHandler(cardRepo, setRepo)
	metadataHandler := handlers.NewMetadataHandler(metadataRepo)
	containerHandler := handlers.NewContainerHandler(containerService)
	collectionHandler := handlers.NewCollectionHandler(collectionService, businessMetrics)
	binderHandler := handlers.NewBinderHandler(binderService, businessMetrics)
	bulkHandler := handlers.NewBulkHandler(bulkService, businessMetrics)
	decklistHandler := handlers.NewDecklistHandler(decklistService)
	pricingHandler := handlers.NewPricingHandler(pricingService)
	healthHandler := handlers.NewHealthHandler(db, serviceVersion)

	loginLimiter := custommw.NewLoginRateLimiter(10, 5)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(observability.TracingMiddleware("magic-library"))
	r.Use(observability.MetricsMiddleware(httpMetrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/api/health", healthHandler.Health)

	skipAuth := []string{
		"/health", "/api/health",
		"/api/auth/register", "/api/auth/login", "/api/auth/status",
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(custommw.BearerAuth(authService, userRepo, skipAuth))

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter.Middleware).Post("/register", authHandler.Register)
			r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)
			r.Get("/status", authHandler.Status)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/search", cardHandler.Search)
			r.Get("/sets", cardHandler.ListSets)
			r.Get("/sets/{setCode}/numbers", cardHandler.ListSetNumbers)
			r.Get("/{setCode}/{number}", cardHandler.Get)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Get("/languages", metadataHandler.ListLanguages)
			r.Get("/finishes", metadataHandler.ListFinishes)
		})

		r.Route("/containers", func(r chi.Router) {
			r.Get("/", containerHandler.List)
			r.Post("/", containerHandler.Create)
			r.Get("/types", containerHandler.ListTypes)
			r.Post("/types", containerHandler.CreateType)
			r.Get("/{id}", containerHandler.Get)
			r.Put("/{id}", containerHandler.Update)
			r.Delete("/{id}", containerHandler.Delete)
		})

		r.Route("/collection", func(r chi.Router) {
			r.Get("/", collectionHandler.List)
			r.Post("/", collectionHandler.Add)
			r.Get("/card/{setCode}/{number}", collectionHandler.Summary)
			r.Get("/{id}", collectionHandler.Get)
			r.Put("/{id}", collectionHandler.Update)
			r.Delete("/{id}", collectionHandler.Delete)
			r.Post("/{id}/move", collectionHandler.Move)
		})

		r.Route("/binder/{containerID}", func(r chi.Router) {
			r.Get("/page/{page}", binderHandler.Page)
			r.Get("/position/{position}", binderHandler.Position)
			r.Post("/positions", binderHandler.Reposition)
			r.Post("/consolidate", binderHandler.Consolidate)
		})

		r.Route("/bulk", func(r chi.Router) {
			r.Post("/import", bulkHandler.Import)
			r.Post("/export", bulkHandler.Export)
			r.Get("/formats", bulkHandler.Formats)
		})

		r.Post("/decklist/check", decklistHandler.Check)

		r.Route("/pricing", func(r chi.Router) {
			r.Get("/status", pricingHandler.Status)
			r.Post("/reload", pricingHandler.Reload)
			r.Get("/collection", pricingHandler.CollectionValue)
		})
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Magic Library server starting on %s", cfg.ServerAddress)
		logger.Infof("Data directory: %s", cfg.DataDir)
		if !cfg.Auth.Enabled {
			logger.Warnf("Authentication disabled, all requests run as %q", cfg.Auth.DefaultUsername)
		}

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

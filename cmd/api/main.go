package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/artfolio/service/internal/assets"
	"github.com/artfolio/service/internal/auth"
	"github.com/artfolio/service/internal/cdn"
	"github.com/artfolio/service/internal/client"
	"github.com/artfolio/service/internal/config"
	"github.com/artfolio/service/internal/db"
	"github.com/artfolio/service/internal/gallery"
	"github.com/artfolio/service/internal/mailer"
	appMiddleware "github.com/artfolio/service/internal/middleware"
	"github.com/artfolio/service/internal/storage"
	"github.com/artfolio/service/internal/user"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// One invalidation client per distribution; local environments without a
	// CDN run with the no-op invalidator.
	var artworksCDN, usersCDN cdn.Invalidator = cdn.Nop{}, cdn.Nop{}
	if cfg.CDNEndpoint != "" {
		artworksCDN = cdn.NewClient(cfg.CDNEndpoint, cfg.ArtworksDistributionID, cfg.CDNToken)
		usersCDN = cdn.NewClient(cfg.CDNEndpoint, cfg.UsersDistributionID, cfg.CDNToken)
	}
	artworksAssets := assets.NewManager(store, artworksCDN)
	userAssets := assets.NewManager(store, usersCDN)

	// Wire dependencies: store → service → handler
	gallerySvc := gallery.NewService(gallery.NewStore(pool), artworksAssets, cfg.ArtworksCDNBaseURL)
	galleryHandler := gallery.NewHandler(gallerySvc)

	clientSvc := client.NewService(client.NewStore(pool), artworksAssets, cfg.ArtworksCDNBaseURL)
	clientHandler := client.NewHandler(clientSvc)

	userSvc := user.NewService(user.NewStore(pool), userAssets, cfg.UsersCDNBaseURL)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, cfg)
	authHandler := auth.NewHandler(authSvc)

	contactHandler := mailer.NewHandler(mailer.NewSMTPSender(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.MailFrom, cfg.MailTo,
	))

	requireAuth := appMiddleware.RequireAuth(cfg.JWTSecret)
	requireAdmin := appMiddleware.RequireRole("admin")

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", galleryHandler.List)
			r.Get("/{id}", galleryHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", galleryHandler.Create)
				r.Patch("/{id}", galleryHandler.Update)
				r.Delete("/{id}", galleryHandler.Delete)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientHandler.List)
			r.Get("/{id}", clientHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", clientHandler.Create)
				r.Patch("/{id}", clientHandler.Update)
				r.Delete("/{id}", clientHandler.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.GetMe)
			r.Patch("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Patch("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		r.Post("/contact", contactHandler.Contact)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}

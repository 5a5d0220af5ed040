package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/lexcms/internal/auth"
	"github.com/rpattn/lexcms/internal/config"
	"github.com/rpattn/lexcms/internal/db"
	"github.com/rpattn/lexcms/internal/export"
	"github.com/rpattn/lexcms/internal/middleware"
	"github.com/rpattn/lexcms/internal/pages"
	"github.com/rpattn/lexcms/internal/repository"
	"github.com/rpattn/lexcms/internal/searchreplace"
	"github.com/rpattn/lexcms/internal/sitemeta"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(conn.Pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	pageRepo := repository.NewPageRepository(conn.Pool)
	auditRepo := repository.NewAuditRepository(conn.Pool)
	settingsRepo := repository.NewSettingsRepository(conn.Pool)
	redirectRepo := repository.NewRedirectRepository(conn.Pool)

	// Services and handlers
	tokens := searchreplace.NewTokenCodec(cfg.Server.TokenSecret, cfg.Server.ConfirmTTL)
	srService := searchreplace.NewService(pageRepo, auditRepo, tokens)
	srHandler := searchreplace.NewHTTPHandler(srService)
	exportService := export.NewService(auditRepo)
	pageHandler := pages.NewHandler(pageRepo)
	metaHandler := sitemeta.NewHandler(settingsRepo, redirectRepo)

	verifier := auth.StaticVerifier{Token: cfg.Server.AdminToken}
	requireAuth := middleware.AuthMiddleware(verifier)

	mux := http.NewServeMux()
	mux.Handle("POST /api/search-replace", requireAuth(srHandler))
	mux.Handle("GET /api/search-replace/operations", requireAuth(srHandler.OperationsHandler()))
	mux.Handle("GET /api/search-replace/operations/{id}/export", requireAuth(exportService.HTTPHandler()))

	mux.Handle("GET /api/pages", requireAuth(http.HandlerFunc(pageHandler.List)))
	mux.Handle("POST /api/pages", requireAuth(http.HandlerFunc(pageHandler.Create)))
	mux.Handle("GET /api/pages/{id}", requireAuth(http.HandlerFunc(pageHandler.Get)))
	mux.Handle("PUT /api/pages/{id}", requireAuth(http.HandlerFunc(pageHandler.Update)))
	mux.Handle("DELETE /api/pages/{id}", requireAuth(http.HandlerFunc(pageHandler.Delete)))

	mux.Handle("GET /api/settings", requireAuth(http.HandlerFunc(metaHandler.GetSettings)))
	mux.Handle("PUT /api/settings", requireAuth(http.HandlerFunc(metaHandler.PutSettings)))
	mux.Handle("GET /api/redirects", requireAuth(http.HandlerFunc(metaHandler.ListRedirects)))
	mux.Handle("POST /api/redirects", requireAuth(http.HandlerFunc(metaHandler.CreateRedirect)))
	mux.Handle("DELETE /api/redirects/{id}", requireAuth(http.HandlerFunc(metaHandler.DeleteRedirect)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.Pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Server.AdminOrigin},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.LoggingMiddleware(corsHandler.Handler(mux)),
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting CMS API on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

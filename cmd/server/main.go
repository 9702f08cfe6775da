package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/treelinux/leafregistry/internal/config"
	"github.com/treelinux/leafregistry/internal/database"
	postgresrepo "github.com/treelinux/leafregistry/internal/repository/postgres"
	"github.com/treelinux/leafregistry/internal/service"
	"github.com/treelinux/leafregistry/internal/storage"
	"github.com/treelinux/leafregistry/internal/transport/http/handlers"
	"github.com/treelinux/leafregistry/internal/transport/http/middleware"
	"github.com/treelinux/leafregistry/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	// Database
	if err := database.Migrate(context.Background(), cfg); err != nil {
		log.Fatal(err)
	}
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Storage
	store, err := storage.New(cfg.StorageRoot)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.Default()

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)

	// Reviewer event feed
	hub := ws.NewHub()
	go hub.Run()
	notifier := ws.NewHubNotifier(hub)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.OwnerUsername)
	moderationService := service.NewModerationService(store, notifier, logger)
	accountService := service.NewAccountService(userRepo, store, logger)
	registryService := service.NewRegistryService(store, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService, store)
	packageHandler := handlers.NewPackageHandler(moderationService, registryService)
	adminHandler := handlers.NewAdminHandler(moderationService, accountService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret, userRepo)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/packages", packageHandler.List)
	mux.HandleFunc("GET /api/v1/packages/search", packageHandler.Search)
	mux.HandleFunc("GET /api/v1/users/search", packageHandler.SearchUsers)
	mux.HandleFunc("GET /api/v1/users/{user}/packages", packageHandler.UserPackages)
	mux.HandleFunc("GET /api/v1/users/{user}/packages/{file}", packageHandler.Download)
	mux.HandleFunc("GET /api/v1/users/{user}/packages/{file}/manifest", packageHandler.Manifest)
	mux.HandleFunc("GET /api/v1/avatars/{file}", accountHandler.Avatar)

	// Protected - Account
	mux.Handle("GET /api/v1/me", auth(http.HandlerFunc(accountHandler.Me)))
	mux.Handle("PATCH /api/v1/me", auth(http.HandlerFunc(accountHandler.UpdateBio)))
	mux.Handle("PUT /api/v1/me/avatar", auth(http.HandlerFunc(accountHandler.SetAvatar)))
	mux.Handle("POST /api/v1/me/username", auth(http.HandlerFunc(accountHandler.Rename)))
	mux.Handle("GET /api/v1/me/pending", auth(http.HandlerFunc(packageHandler.MyPending)))

	// Protected - Uploads
	mux.Handle("POST /api/v1/packages", auth(http.HandlerFunc(packageHandler.Upload)))

	// Protected - Moderation
	mux.Handle("GET /api/v1/admin/pending", auth(http.HandlerFunc(adminHandler.Pending)))
	mux.Handle("GET /api/v1/admin/pending/{user}/{file}/manifest", auth(http.HandlerFunc(adminHandler.PendingManifest)))
	mux.Handle("POST /api/v1/admin/pending/{user}/{file}/accept", auth(http.HandlerFunc(adminHandler.Accept)))
	mux.Handle("POST /api/v1/admin/pending/{user}/{file}/deny", auth(http.HandlerFunc(adminHandler.Deny)))
	mux.Handle("DELETE /api/v1/admin/packages/{user}/{file}", auth(http.HandlerFunc(adminHandler.DeletePublished)))
	mux.Handle("POST /api/v1/admin/users/{user}/ban", auth(http.HandlerFunc(adminHandler.Ban)))
	mux.Handle("POST /api/v1/admin/users/{user}/unban", auth(http.HandlerFunc(adminHandler.Unban)))
	mux.Handle("POST /api/v1/admin/users/{user}/role", auth(http.HandlerFunc(adminHandler.SetRole)))

	// Reviewer event feed (token auth happens in the handler)
	mux.HandleFunc("GET /api/v1/admin/events", ws.ServeWS(hub, cfg.JWTSecret, userRepo))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}

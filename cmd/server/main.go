// @title           HolaBox API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"holabox/internal/api"
	"holabox/internal/config"
	"holabox/internal/database"
	"holabox/internal/storage"
	"holabox/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "holabox/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Nie można wczytać konfiguracji: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Nie można połączyć się z bazą danych: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Nie można pingować bazy danych: %v", err)
	}
	log.Println("Pomyślnie połączono z bazą danych")

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Nie można zainicjować local storage: %v", err)
	}
	log.Printf("Pliki będą przechowywane w: %s", cfg.Storage.Path)

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(dbpool)
	server := api.NewServer(cfg, store, localStorage, wsHub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("HolaBox działa! Dokumentacja dostępna pod /swagger/index.html"))
	})

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Endpointy publiczne
	r.Post("/api/v1/auth/register", server.RegisterHandler)
	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/auth/refresh", server.RefreshTokenHandler)
	r.Get("/api/v1/premium/plans", server.ListPlansHandler)
	r.Get("/api/v1/shares/{shareToken}/access", server.AccessShareHandler)
	r.Get("/api/v1/shares/{shareToken}/download", server.DownloadShareHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)

		r.Post("/auth/logout", server.LogoutHandler)
		r.Post("/auth/change-password", server.ChangePasswordHandler)

		r.Get("/me", server.GetCurrentUserHandler)
		r.Put("/me", server.UpdateProfileHandler)
		r.Get("/me/storage", server.GetStorageInfoHandler)
		r.Post("/me/storage/recompute", server.RecomputeStorageHandler)

		r.Get("/sessions", server.ListSessionsHandler)
		r.Delete("/sessions/{sessionId}", server.DeleteSessionHandler)

		r.Post("/storage/upload", server.UploadFileHandler)
		r.Get("/storage/files", server.ListFilesHandler)
		r.Get("/storage/files/{fileId}", server.GetFileHandler)
		r.Get("/storage/files/{fileId}/download", server.DownloadFileHandler)
		r.Delete("/storage/files/{fileId}", server.DeleteFileHandler)
		r.Post("/storage/files/{fileId}/restore", server.RestoreFileHandler)
		r.Put("/storage/files/{fileId}/rename", server.RenameFileHandler)
		r.Put("/storage/files/{fileId}/move", server.MoveFileHandler)

		r.Post("/storage/folders", server.CreateFolderHandler)
		r.Get("/storage/folders", server.ListFoldersHandler)
		r.Put("/storage/folders/{folderId}/rename", server.RenameFolderHandler)

		r.Post("/shares", server.CreateShareHandler)
		r.Get("/shares", server.ListMySharesHandler)
		r.Delete("/shares/{shareId}", server.RevokeShareHandler)

		r.Post("/premium/upgrade", server.UpgradePlanHandler)
		r.Get("/premium/subscription", server.GetSubscriptionHandler)

		r.Get("/events", server.GetEventsHandler)

		r.Route("/admin", func(r chi.Router) {
			r.Use(server.AdminMiddleware)
			r.Get("/users", server.AdminListUsersHandler)
			r.Put("/users/{userId}/active", server.AdminSetUserActiveHandler)
			r.Get("/stats", server.AdminStatsHandler)
		})
	})

	log.Println("Uruchamianie serwera na porcie :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatalf("Nie można uruchomić serwera: %v", err)
	}
}

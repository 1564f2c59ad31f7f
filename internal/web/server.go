package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jordanrcarlson/jordancloud/internal/auth"
	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/cache"
	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/media"
	"github.com/Jordanrcarlson/jordancloud/internal/recon"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
	"github.com/Jordanrcarlson/jordancloud/internal/web/handlers"
)

// Server представляет веб-сервер приложения
type Server struct {
	cfg    *config.Config
	router *chi.Mux
	srv    *http.Server
}

// NewServer создает веб-сервер со всеми маршрутами
func NewServer(
	cfg *config.Config,
	store *storage.Store,
	blobs *blob.Store,
	mediaSvc *media.Service,
	thumbs *media.Thumbnailer,
	gate *auth.Gate,
	listings *cache.ListingCache,
	reconciler *recon.Reconciler,
	janitor *recon.Janitor,
) *Server {
	s := &Server{cfg: cfg}
	s.setupRoutes(store, blobs, mediaSvc, thumbs, gate, listings, reconciler, janitor)
	return s
}

func (s *Server) setupRoutes(
	store *storage.Store,
	blobs *blob.Store,
	mediaSvc *media.Service,
	thumbs *media.Thumbnailer,
	gate *auth.Gate,
	listings *cache.ListingCache,
	reconciler *recon.Reconciler,
	janitor *recon.Janitor,
) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	h := handlers.NewHandlers(s.cfg, store, blobs, mediaSvc, thumbs, gate, listings, reconciler, janitor)

	// Раздача оригиналов
	fileServer := http.FileServer(http.Dir(blobs.Dir()))
	r.Handle("/images/*", http.StripPrefix("/images/", fileServer))

	// Загрузка и листинг файлов
	r.Post("/api/upload", h.Upload)
	r.Get("/api/files", h.ListFiles)
	r.Post("/api/delete", h.Delete)

	// Медиа
	r.Get("/api/media", h.ListMedia)
	r.Post("/api/media/{id}/restore", h.Restore)
	r.Get("/media/{id}/thumb/{size}", h.ServeThumbnail)

	// Обслуживание
	r.Post("/api/reconcile", h.StartReconcile)
	r.Get("/api/reconcile/progress", h.ReconcileProgress)
	r.Post("/api/cleanup", h.StartCleanup)
	r.Get("/api/stats", h.Stats)

	// Альбомы
	r.Get("/api/albums", h.ListAlbums)
	r.Post("/api/albums", h.CreateAlbum)
	r.Get("/api/albums/{id}", h.GetAlbum)
	r.Put("/api/albums/{id}", h.UpdateAlbum)
	r.Delete("/api/albums/{id}", h.DeleteAlbum)
	r.Get("/api/albums/{id}/media", h.GetAlbumMedia)
	r.Post("/api/albums/{id}/media", h.AddToAlbum)
	r.Delete("/api/albums/{id}/media", h.RemoveFromAlbum)

	// Личная папка
	r.Post("/api/personal/verify", h.VerifyPersonal)
	r.Post("/api/personal/logout", h.LogoutPersonal)

	s.router = r
}

// Start запускает веб-сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	logger.InfoLog.Printf("[WEB] starting server on http://%s", addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Router возвращает роутер (для тестов)
func (s *Server) Router() http.Handler {
	return s.router
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/auth"
	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/cache"
	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/media"
	"github.com/Jordanrcarlson/jordancloud/internal/recon"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
	"github.com/Jordanrcarlson/jordancloud/internal/web"
	"github.com/Jordanrcarlson/jordancloud/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Config file not found (%v), using defaults", err)
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Storage.LogsPath); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Cleanup()

	store, err := storage.NewStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	blobs, err := blob.NewStore(cfg.Storage.ImagesPath)
	if err != nil {
		log.Fatalf("Failed to init blob store: %v", err)
	}

	thumbs := media.NewThumbnailer(cfg)
	if err := thumbs.EnsureCacheDir(); err != nil {
		log.Fatalf("Failed to init thumbnail cache: %v", err)
	}

	mediaSvc := media.NewService(cfg, store, blobs, thumbs)

	gate, err := auth.NewGate(cfg, store)
	if err != nil {
		log.Fatalf("Failed to init personal folder gate: %v", err)
	}

	listings := cache.NewListingCache(store)
	defer listings.Stop()

	pool := worker.NewPool(0, 0)
	thumbQueue := worker.NewThumbQueue(pool, store, blobs, thumbs)
	mediaSvc.SetThumbnailQueue(thumbQueue)

	reconciler := recon.NewReconciler(store, blobs)
	janitor := recon.NewJanitor(cfg, pool, reconciler, mediaSvc)
	janitor.OnChange(listings.Invalidate)

	watcher, err := recon.NewWatcher(cfg.Storage.ImagesPath, store, blobs)
	if err != nil {
		log.Fatalf("Failed to init file watcher: %v", err)
	}
	watcher.OnChange(listings.Invalidate)

	pool.Start()
	janitor.Start()
	if err := watcher.Start(); err != nil {
		log.Fatalf("Failed to start file watcher: %v", err)
	}

	srv := web.NewServer(cfg, store, blobs, mediaSvc, thumbs, gate, listings, reconciler, janitor)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigChan:
		logger.InfoLog.Printf("Received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorLog.Printf("Server shutdown error: %v", err)
	}

	watcher.Stop()
	janitor.Stop()
	pool.Stop()
}

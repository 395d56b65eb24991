package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"tubeshelf/config"
	"tubeshelf/handlers"
	"tubeshelf/internal/database"
	"tubeshelf/services/catalog"
	"tubeshelf/services/diskcache"
	"tubeshelf/services/downloads"
	"tubeshelf/services/library"
	"tubeshelf/services/paginator"
	"tubeshelf/services/playback"
	"tubeshelf/services/thumbs"
	"tubeshelf/utils"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()

	cfgManager, err := config.NewManager(*configPath)
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}
	cfg := cfgManager.Get()

	if cfg.LogPath != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	log.Printf("[main] starting, config %s", *configPath)

	for _, dir := range []string{cfg.CacheDir, cfg.ThumbnailDir, cfg.DownloadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("[main] create %s: %v", dir, err)
		}
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	osFs := afero.NewOsFs()
	cache := diskcache.New(osFs, cfg.CacheDir, cfgManager.CacheTTL)
	scanner := library.NewScanner(osFs)

	httpc := &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}
	client := catalog.NewClient(cfg.APIKey, cfg.APIBaseURL, httpc)

	engine := paginator.NewEngine(cfgManager, cache, client, scanner, db.Downloads)

	thumbQueue := thumbs.NewQueue(cfg.ThumbnailDir, thumbs.NewFFmpegGenerator())

	player := playback.NewService(osFs, db.Downloads, db.Progress, scanner, client)
	downloadSvc := downloads.NewService(nil, db.Downloads)

	videosHandler := handlers.NewVideosHandler(engine, cfgManager)
	videosHandler.SetRecorder(player)
	videosHandler.SetThumbScheduler(thumbQueue)

	playbackHandler := handlers.NewPlaybackHandler(player)
	playbackHandler.SetProgressStore(db.Progress)

	downloadsHandler := handlers.NewDownloadsHandler(downloadSvc, db.Downloads)
	thumbnailsHandler := handlers.NewThumbnailsHandler(thumbQueue)

	r := utils.NewRouter(cfg.ThumbnailDir)
	r.HandleFunc("/api/sources", videosHandler.GetSources).Methods(http.MethodGet)
	r.HandleFunc("/api/videos", videosHandler.GetVideos).Methods(http.MethodGet)
	r.HandleFunc("/api/playback/{id}", playbackHandler.GetPlayback).Methods(http.MethodGet)
	r.HandleFunc("/api/progress/{id}", playbackHandler.GetProgress).Methods(http.MethodGet)
	r.HandleFunc("/api/progress/{id}", playbackHandler.UpdateProgress).Methods(http.MethodPut)
	r.HandleFunc("/api/downloads", downloadsHandler.StartDownload).Methods(http.MethodPost)
	r.HandleFunc("/api/downloads", downloadsHandler.ListDownloads).Methods(http.MethodGet)
	r.HandleFunc("/api/downloads/{id}", downloadsHandler.GetDownload).Methods(http.MethodGet)
	r.HandleFunc("/api/downloads/{id}", downloadsHandler.DeleteDownload).Methods(http.MethodDelete)
	r.HandleFunc("/api/thumbnails/events", thumbnailsHandler.Events).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnails/status", thumbnailsHandler.QueueStatus).Methods(http.MethodGet)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweepCache(ctx, cache)
	go reloadOnSIGHUP(cfgManager, engine)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}

// sweepCache removes expired cache records periodically so the cache
// directory does not grow without bound.
func sweepCache(ctx context.Context, cache *diskcache.Cache) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cache.SweepExpired(); n > 0 {
				log.Printf("[main] cache sweep removed %d records", n)
			}
		}
	}
}

// reloadOnSIGHUP re-reads the config file and drops memoized directory
// scans so new sources and page sizes take effect without a restart.
func reloadOnSIGHUP(cfgManager *config.Manager, engine *paginator.Engine) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	for range hup {
		if err := cfgManager.Reload(); err != nil {
			log.Printf("[main] config reload: %v", err)
			continue
		}
		engine.InvalidateScans()
		log.Println("[main] config reloaded")
	}
}

func defaultConfigPath() string {
	if env := os.Getenv("TUBESHELF_CONFIG"); env != "" {
		return env
	}
	if dir := os.Getenv("TUBESHELF_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "config.json")
	}
	return filepath.Join("data", "config.json")
}

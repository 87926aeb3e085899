package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"reelvault/api"
	"reelvault/config"
	"reelvault/handlers"
	"reelvault/services/catalog"
	"reelvault/services/enrich"
	"reelvault/services/ingest"
	"reelvault/services/notify"
	"reelvault/services/posters"
	"reelvault/services/progress"
	"reelvault/services/scheduler"
	"reelvault/services/users"
	"reelvault/services/videoapi"
	"reelvault/services/watchlist"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("REELVAULT_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Storage-backed services
	catalogService, err := catalog.NewService(settings.Storage.DataDirectory)
	if err != nil {
		log.Fatalf("failed to initialize catalog: %v", err)
	}
	progressService, err := progress.NewService(settings.Storage.DataDirectory)
	if err != nil {
		log.Fatalf("failed to initialize progress store: %v", err)
	}
	usersService, err := users.NewService(settings.Storage.DataDirectory)
	if err != nil {
		log.Fatalf("failed to initialize users: %v", err)
	}
	watchlistService, err := watchlist.NewService(settings.Storage.DataDirectory)
	if err != nil {
		log.Fatalf("failed to initialize watchlist: %v", err)
	}
	posterStore, err := posters.NewStore(settings.Storage.PostersDirectory, nil)
	if err != nil {
		log.Fatalf("failed to initialize poster store: %v", err)
	}

	// External collaborators
	platformClient := videoapi.NewClient(settings.VideoAPI.APIKey, nil)
	enrichClient := enrich.NewClient(settings.AI.APIKey, settings.AI.BaseURL, settings.AI.Model, settings.AI.WebSearch, nil)

	var notifier notify.Notifier = notify.LogNotifier{}
	if settings.Telegram.BotToken != "" && settings.Telegram.AdminChatID != 0 {
		notifier = notify.NewTelegramNotifier(settings.Telegram.BotToken, settings.Telegram.AdminChatID, nil)
		log.Printf("[main] operator notifications via telegram chat %d", settings.Telegram.AdminChatID)
	} else {
		log.Printf("[main] telegram not configured; operator notifications go to the log")
	}

	// Ingestion pipeline + scheduler
	ingestService := ingest.NewService(platformClient, enrichClient, posterStore, catalogService, progressService, notifier)
	schedulerService := scheduler.NewService(cfgManager, ingestService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := schedulerService.Start(ctx); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	router := api.NewRouter(api.Handlers{
		Movies:     handlers.NewMoviesHandler(catalogService),
		Ingest:     handlers.NewIngestHandler(schedulerService, ingestService),
		Settings:   handlers.NewSettingsHandler(cfgManager),
		Users:      handlers.NewUsersHandler(usersService),
		Watchlist:  handlers.NewWatchlistHandler(watchlistService, usersService, catalogService),
		PostersDir: posterStore.Dir(),
	})

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := schedulerService.Stop(shutdownCtx); err != nil {
		log.Printf("warning: scheduler shutdown: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: server shutdown: %v", err)
	}

	log.Println("[main] goodbye")
}

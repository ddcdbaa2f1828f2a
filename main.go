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

	"novagrab/api"
	"novagrab/config"
	"novagrab/handlers"
	"novagrab/models"
	"novagrab/services/decision"
	"novagrab/services/downloadclient"
	"novagrab/services/grab"
	"novagrab/services/history"
	"novagrab/services/importer"
	"novagrab/services/indexer"
	"novagrab/services/library"
	"novagrab/services/tracking"
	"novagrab/utils/parser"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 novagrab starting...")

	configPath := os.Getenv("NOVAGRAB_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if err := settings.Validate(); err != nil {
		log.Printf("[config] settings problems, searches may fail: %v", err)
	}

	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
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
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(ctx, settings.Database)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer store.Close()

	fs := afero.NewOsFs()
	catalog, err := library.NewCatalog(fs, settings.Library.CatalogPath)
	if err != nil {
		log.Fatalf("failed to open library catalog: %v", err)
	}

	// Indexers are registered once; settings edits toggle and reorder them.
	indexerService := indexer.NewService(cfgManager)
	for _, idx := range indexer.FromSettings(fs, settings.Indexers) {
		indexerService.Register(idx)
	}

	qualities := models.DefaultQualities()
	decisionService := decision.NewService(cfgManager, qualities, indexerService, catalog, store)
	client := downloadclient.NewBlackhole(fs, cfgManager)
	importService := importer.NewService(fs, decisionService, catalog)
	importService.SetMediaReader(importer.NewFFprobe(cfgManager))
	tracker := tracking.NewTracker(cfgManager, client, importService, store)
	grabService := grab.NewService(decisionService, client, store, tracker, catalog)
	tracker.SetResearcher(grabService)
	tracker.OnTransition(func(tr models.Transition) {
		log.Printf("[tracking] %s: %s -> %s", tr.DownloadID, tr.From, tr.To)
	})

	restored, err := tracker.Restore(ctx)
	if err != nil {
		log.Printf("[tracking] restore failed: %v", err)
	} else if restored > 0 {
		log.Printf("[tracking] restored %d download(s) from history", restored)
	}

	poller := tracking.NewPoller(tracker, cfgManager)
	if err := poller.Start(ctx); err != nil {
		log.Fatalf("failed to start download poller: %v", err)
	}

	r := api.NewRouter(api.Handlers{
		Settings: handlers.NewSettingsHandler(cfgManager),
		Releases: handlers.NewReleasesHandler(decisionService, grabService, catalog),
		Queue:    handlers.NewQueueHandler(tracker),
		History:  handlers.NewHistoryHandler(store),
		Library:  handlers.NewLibraryHandler(catalog),
		Parse:    handlers.NewParseHandler(parser.New(qualities)),
	})

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := poller.Stop(shutdownCtx); err != nil {
		log.Printf("Poller shutdown error: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

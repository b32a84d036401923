package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onecart/onecart/app/api"
	"github.com/onecart/onecart/app/bridge"
	"github.com/onecart/onecart/app/bus"
	"github.com/onecart/onecart/app/cart"
	"github.com/onecart/onecart/app/cfg"
	"github.com/onecart/onecart/app/database"
	"github.com/onecart/onecart/app/extract"
	"github.com/onecart/onecart/app/intent"
	"github.com/onecart/onecart/app/sites"
	"github.com/onecart/onecart/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting OneCart daemon", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DataDir)
	if err != nil {
		slog.Error("Failed to open storage database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run storage migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Storage ready", "dir", appCfg.DataDir, "migration_version", version, "dirty", dirty)

	kv := database.NewKVRepository(db)

	registry := sites.NewRegistry(appCfg.SitesDir)
	if err := registry.Run(); err != nil {
		slog.Warn("Failed to load site adapter configurations, using defaults", "dir", appCfg.SitesDir, "error", err)
	}
	slog.Info("Site adapters loaded", "count", registry.GetConfigCount())

	hub := bus.NewHub()
	reducer := cart.NewReducer(kv, registry, hub, appCfg.NotifyWindow())

	// Mode toggles reach SSE observers through the storage change feed, so a
	// write from any caller is mirrored to every connected UI.
	kv.Subscribe(func(key, value string) {
		if key == cart.StorageKeyMode {
			hub.Publish(bus.Event{
				Type: bus.EventModeChanged,
				Data: map[string]interface{}{"enabled": value != "false"},
			})
		}
	})

	tabs := bridge.NewTabStore()
	nudges := bridge.NewNudgeStore(appCfg.NudgeTTL())
	extractor := extract.NewExtractor(registry)
	classifier := intent.NewClassifier(registry, appCfg.ClickWindow(), appCfg.Debounce())

	slog.Info("Starting pipeline scheduler", "workers", appCfg.WorkerCount, "queue_size", appCfg.QueueSize)
	scheduler := tasks.NewScheduler(nudges)
	scheduler.Start()
	defer scheduler.Stop()

	forwarder := bridge.NewForwarder(appCfg.Debounce(), func(sig intent.AddIntentSignal) error {
		task := tasks.NewProcessSignalTask(sig, tabs, nudges, extractor, reducer, scheduler, hub)
		return scheduler.EnqueueTask(task)
	})

	handler := api.NewHandler(classifier, forwarder, tabs, reducer, registry, hub)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     server,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /stream holds SSE connections open indefinitely.
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("OneCart daemon started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}

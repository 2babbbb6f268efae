package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-library/internal/filesystem"
	"media-library/internal/handlers"
	"media-library/internal/logging"
	"media-library/internal/memory"
	"media-library/internal/metrics"
	"media-library/internal/middleware"
	"media-library/internal/photolibrary"
	"media-library/internal/render"
	"media-library/internal/startup"
)

const statsInterval = time.Minute

func main() {
	startTime := time.Now()

	memLimit := memory.ConfigureFromEnv()
	startup.LogMemoryConfig(memLimit)

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media":    config.MediaDir,
		"database": config.DatabaseDir,
	}))

	libStart := time.Now()
	lib, err := photolibrary.New(context.Background(), config.Library(memLimit.GoMemLimit))
	if err != nil {
		startup.LogFatal("Failed to open media library: %v", err)
	}
	startup.LogLibraryInit(time.Since(libStart))
	startup.LogVideoTools(lib.Prober())
	vipsErr := render.InitVips()
	startup.LogImageBackend(render.IsVipsAvailable(), vipsErr)
	startup.LogIndexerInit(config.IndexInterval, config.WatchEnabled)

	metrics.InitializeMetrics()
	build := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(build.Version, build.Commit, build.GoVersion).Set(1)

	collector := metrics.NewCollector(lib, statsInterval)
	collector.Start()

	router := setupRouter(handlers.New(lib, nil), config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Streams enforce their own write deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           handlers.MetricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, collector, lib)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// Wait for shutdown to release the catalogue.
	<-shutdownDone
}

var shutdownDone = make(chan struct{})

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	r.Use(middleware.Recover)
	r.Use(middleware.Logger(loggingConfig))
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	return r
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, lib *photolibrary.Service) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing media library")
	if err := lib.Close(); err != nil {
		logging.Warn("Library close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Media library closed")
	}

	if render.IsVipsAvailable() {
		startup.LogShutdownStep("Shutting down libvips")
		render.ShutdownVips()
		startup.LogShutdownStepComplete("libvips stopped")
	}

	startup.LogShutdownComplete()
}

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cvassess "github.com/MegaGrindStone/cv-assess-web"
	"github.com/MegaGrindStone/cv-assess-web/internal/assessment"
	"github.com/MegaGrindStone/cv-assess-web/internal/handlers"
	"github.com/MegaGrindStone/cv-assess-web/internal/services"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A .env file is optional, API keys may come from the real environment.
	_ = godotenv.Load()

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}
	cfgPath := filepath.Join(cfgDir, "cvassess")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfgFilePath := os.Getenv("CVASSESS_CONFIG")
	if cfgFilePath == "" {
		cfgFilePath = filepath.Join(cfgPath, "config.yaml")
	}
	cfgFile, err := os.Open(cfgFilePath)
	if err != nil {
		log.Fatal(fmt.Errorf("error opening config file: %w", err))
	}
	cfg, err := loadConfig(cfgFile)
	cfgFile.Close()
	if err != nil {
		log.Fatal(err)
	}

	logger := cfg.logger(os.Stderr)

	llm, err := cfg.LLM.llm(cfg.SystemPrompt, logger)
	if err != nil {
		log.Fatal(err)
	}

	dbPath := filepath.Join(cfgPath, "store.db")
	boltDB, err := services.NewBoltDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer boltDB.Close()

	accumulator := assessment.NewAccumulator(cfg.proxyEndpoint(), logger)

	m, err := handlers.NewMain(llm, boltDB, accumulator, logger)
	if err != nil {
		log.Fatal(err)
	}

	// Serve static files
	staticFS, err := fs.Sub(cvassess.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	// Create custom mux
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/form", m.HandleForm)
	mux.HandleFunc("/assessments", m.HandleAssessments)
	mux.HandleFunc("/history", m.HandleHistory)
	mux.HandleFunc("/sse", m.HandleSSE)
	mux.HandleFunc("/api/generate", m.HandleGenerate)
	mux.Handle("/metrics", promhttp.Handler())

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown main handler", slog.String("err", err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("Server starting",
			slog.String("addr", srv.Addr),
			slog.String("proxy", cfg.proxyEndpoint()))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}

// Package main initializes and starts the Scrollie server,
// setting up configuration, logging, storage, the generation pipeline,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/config"
	"github.com/atinyakov/scrollie/internal/generator"
	"github.com/atinyakov/scrollie/internal/logger"
	"github.com/atinyakov/scrollie/internal/repository"
	"github.com/atinyakov/scrollie/internal/server/handler/http"
	"github.com/atinyakov/scrollie/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, options)
	if err != nil {
		zapLogger.Fatal("cannot open store", zap.String("store", options.Store), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Error("failed to close store", zap.Error(err))
		}
	}()
	repo := repository.New(store)

	// Text generation falls back to placeholder content without an API key.
	var textGen generator.TextGenerator = generator.Disabled{}
	if options.GeneratorAPIKey != "" {
		textGen = generator.NewOpenAIClient(generator.OpenAIConfig{
			BaseURL: options.GeneratorBaseURL,
			APIKey:  options.GeneratorAPIKey,
			Model:   options.GeneratorModel,
			RPS:     options.GenerateRPS,
		})
	} else {
		zapLogger.Warn("no generator API key configured, projects will get placeholder content")
	}
	pipeline := generator.NewPipeline(textGen, time.Duration(options.GenerateTimeout), zapLogger)

	// Initialize business-logic services.
	authService := service.NewAuthService(repo, zapLogger)
	planService := service.NewPlanService(repo, zapLogger)
	contentService := service.NewContentService(repo, pipeline, zapLogger)
	projectService := service.NewProjectService(repo, zapLogger)

	authHandler := &http.AuthHandler{AuthService: authService, PlanService: planService, Logger: zapLogger}
	projectHandler := &http.ProjectHandler{ContentService: contentService, ProjectService: projectService, Logger: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, projectHandler, authService, options.AllowedOrigins, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(options.ShutdownTimeout))
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

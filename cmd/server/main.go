package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	httpapi "groupreview-bot/internal/api/http"
	"groupreview-bot/internal/config"
	"groupreview-bot/internal/jobs"
	"groupreview-bot/internal/logger"
	"groupreview-bot/internal/onebot"
	"groupreview-bot/internal/scheduler"
	"groupreview-bot/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration; a broken file falls back to defaults
	cfg, cfgErr := config.Load(*configPath)

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	if cfgErr != nil {
		logger.Error("Failed to load configuration, using defaults and environment overrides", "path", *configPath, "error", cfgErr)
	}
	logger.Info("Starting group join request reviewer...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "event_path", cfg.Server.EventPath)
	logger.Info("OneBot configuration", "platform", cfg.OneBot.Platform, "api_url", cfg.OneBot.APIURL, "grpc_target", cfg.OneBot.GRPCTarget)

	// Initialize bot client for the configured platform binding
	client, err := onebot.NewClient(cfg.OneBot)
	if err != nil {
		logger.Error("Failed to create bot client", "error", err)
		log.Fatalf("Failed to create bot client: %v", err)
	}
	var responder service.GroupRequestResponder
	var status onebot.StatusChecker
	if client != nil {
		responder, status = client, client
		defer client.Close()
	} else {
		logger.Warn("No bot client bound, join requests will only be logged")
	}

	// Initialize reviewer
	reviewer := service.NewRequestDecider(cfg.Review, responder)

	// Initialize scheduler
	sched, err := scheduler.NewScheduler(jobs.NewJobRunner(status, cfg))
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Set up HTTP server for reverse-HTTP events
	router := mux.NewRouter()
	httpapi.RegisterEventRoutes(router, cfg.Server.EventPath, reviewer, cfg.OneBot.Secret)
	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Event listener started", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	// pending delayed decisions are dropped; the requests stay open for manual review
	reviewer.Close()
	if err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

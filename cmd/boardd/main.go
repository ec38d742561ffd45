package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshopboard/internal/board"
	"workshopboard/internal/cache"
	"workshopboard/internal/cin7"
	"workshopboard/internal/config"
	"workshopboard/internal/export"
	"workshopboard/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("boardd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file (optional; env overrides apply)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	loc := cfg.Location()

	stages := make([]board.Stage, 0, len(cfg.Board.DisplayedStages))
	for _, s := range cfg.Board.DisplayedStages {
		stages = append(stages, board.Stage(s))
	}

	client := cin7.NewClient(cfg.Cin7, logger)
	composer := board.NewComposer(board.Options{
		WorkshopBranch:    cfg.Board.WorkshopBranch,
		DueSoonWindowDays: cfg.Board.DueSoonWindowDays,
		TVSectionCap:      cfg.Board.TVSectionCap,
		DisplayedStages:   stages,
		Location:          loc,
	})
	controller := cache.NewController(client, composer, cfg.TTL(), cfg.RefreshInterval(), logger)
	exporter := export.NewService(logger)
	handler := web.NewHandler(controller, exporter,
		cfg.Board.WorkshopBranch, cfg.Board.DueSoonWindowDays, cfg.Board.UpcomingWindowDays,
		loc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the board before serving. A failed first fetch is not fatal;
	// the pages show the unavailable state and retries follow.
	warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
	if err := controller.Refresh(warmCtx); err != nil {
		logger.Warn("initial fetch failed", "error", err)
	}
	cancel()

	controller.Start()
	defer controller.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving workshop board",
			"addr", cfg.Server.Addr,
			"branch", cfg.Board.WorkshopBranch,
			"timezone", cfg.Board.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

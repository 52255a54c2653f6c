// Package main runs the snowclone dashboard server: recorded run history,
// live audit and validation triggers, and scheduled template refreshes.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"snowclone/internal/config"
	"snowclone/internal/dashboard"
	"snowclone/internal/history"
	"snowclone/internal/service/audit"
	"snowclone/internal/service/clone"
	"snowclone/internal/service/refresh"
	"snowclone/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	store, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	handler := &dashboard.Handler{
		History: store,
		Logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scheduler *refresh.Scheduler

	// The project file is optional for the server: without it the dashboard
	// still serves run history, just without live warehouse access.
	project, err := config.LoadProject(cfg.ProjectFile)
	switch {
	case err != nil:
		logger.Warn("project file not loaded; audit, validation and refresh disabled",
			"path", cfg.ProjectFile, "error", err)
	case project.Snowflake.Password == "" && project.Snowflake.Authenticator == "":
		logger.Warn("no warehouse credentials; audit, validation and refresh disabled",
			"path", cfg.ProjectFile)
	default:
		session, err := warehouse.Open(ctx, project.Snowflake, logger)
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()

		handler.Verifier = audit.NewAuditor(session, logger)
		handler.AuditRoles = declaredRoles(project)
		handler.DefaultDatabase = project.Snowflake.Database

		engine := clone.NewEngine(session, logger)
		scheduler = refresh.NewScheduler(engine, store, logger)
		scheduler.Start(project.Refresh, project.Templates)
		handler.Schedules = scheduler
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           dashboard.NewRouter(cfg, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		if scheduler != nil {
			scheduler.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func declaredRoles(project *config.Project) []string {
	var names []string
	for _, role := range project.RBAC.ServiceRoles {
		names = append(names, role.Name)
	}
	for _, role := range project.RBAC.SystemFullRoles {
		names = append(names, role.Name)
	}
	return names
}

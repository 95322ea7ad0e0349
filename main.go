package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/costume-contest/auth"
	"github.com/danielhkuo/costume-contest/cliparse"
	"github.com/danielhkuo/costume-contest/db"
	"github.com/danielhkuo/costume-contest/models"
	"github.com/danielhkuo/costume-contest/router"
	"github.com/danielhkuo/costume-contest/store"
	"github.com/danielhkuo/costume-contest/uploads"
)

func main() {
	// Parse configuration (.env, flags, environment)
	cfg, err := cliparse.Load(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if cfg.Dev {
		slog.Warn("development mode enabled; do not use in production")
	}

	ctx := context.Background()
	dialect := db.Dialect(cfg.DatabaseType)

	// Open the database
	dbConn, err := db.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn, dialect); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	if cfg.SeedCategories {
		if err := db.Seed(ctx, dbConn, dialect, models.DefaultCategories); err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Database schema ready", "type", dialect)

	up, err := uploads.New(cfg.UploadDir, cfg.MaxUploadBytes, cfg.AllowedExts)
	if err != nil {
		slog.Error("upload directory unavailable", "error", err)
		os.Exit(1)
	}

	checker, err := auth.NewPasswordChecker(cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		slog.Error("admin password setup failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(store.New(dbConn, dialect), up, cfg, checker)

	// Create server
	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		slog.Error("listen failed", "addr", server.Addr, "error", err)
		return
	}

	slog.Info("Listening", "port", cfg.Port, "uploads", up.Dir())
	if err := serve(&server, ln, ctrlc, 10*time.Second); err != nil {
		slog.Error("Server closed", "error", err)
		return
	}
	slog.Info("Server closed")
}

// serve runs server on ln until a signal arrives on stop, then drains
// in-flight requests for up to grace before returning.
func serve(server *http.Server, ln net.Listener, stop <-chan os.Signal, grace time.Duration) error {
	drained := make(chan error, 1)
	go func() {
		<-stop
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
		drained <- err
	}()

	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Serve returns as soon as Shutdown starts; wait for the drain.
	return <-drained
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/splitmate/activity"
	"github.com/billbatista/splitmate/api"
	"github.com/billbatista/splitmate/config"
	"github.com/billbatista/splitmate/db"
	"github.com/billbatista/splitmate/ledger"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		printErrorAndExit("loading .env", err)
	}
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		printErrorAndExit("parsing config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer conn.Close()

	if err := db.CreateSchema(ctx, conn); err != nil {
		printErrorAndExit("creating schema", err)
	}

	recorder := activity.NewSQLRecorder(conn)
	worker := activity.NewWorker(recorder, cfg.ActivityBuffer)
	worker.Start()
	defer worker.Shutdown()

	handlers, err := api.New(api.Deps{
		Store:     ledger.NewRepository(conn),
		History:   recorder,
		Activity:  worker,
		PublicURL: cfg.PublicURL,
	})
	if err != nil {
		printErrorAndExit("building api", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "driver", cfg.DatabaseDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}

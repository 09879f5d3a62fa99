package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"diffsmith/internal/database"
	"diffsmith/internal/events"
	"diffsmith/internal/pipeline"
	"diffsmith/internal/services"
	"diffsmith/internal/utils"
)

const defaultAddr = ":8000"

// envInt reads an optional integer override; zero falls back to the
// pipeline package defaults.
func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		slog.Warn("ignoring invalid value", "var", name, "value", raw)
		return 0
	}
	return n
}

func main() {
	// .env is optional; keys can also live in the keyring.
	_ = utils.LoadEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	events.EnableLogEmitter(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(database.Config{})
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	gitService := services.NewGitService()
	keyringService := services.NewKeyringService()
	dbServices := services.NewDbServices(db)
	pipelineService := services.NewPipelineService(
		gitService,
		keyringService,
		dbServices.ModelConfigs,
		dbServices.Runs,
		pipeline.Config{
			MaxFileLines:  envInt("DIFFSMITH_MAX_FILE_LINES"),
			MaxTotalLines: envInt("DIFFSMITH_MAX_TOTAL_LINES"),
			Retries:       envInt("DIFFSMITH_RETRIES"),
		},
	)

	gitService.Startup(ctx)
	keyringService.Startup()
	dbServices.Runs.Startup(ctx)
	if err := dbServices.ModelConfigs.Startup(ctx); err != nil {
		logger.Error("failed to load model catalog", "error", err)
		os.Exit(1)
	}
	if err := pipelineService.Startup(ctx); err != nil {
		logger.Error("failed to start pipeline service", "error", err)
		os.Exit(1)
	}

	addr := os.Getenv("DIFFSMITH_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(pipelineService, dbServices.Runs, dbServices.ModelConfigs).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("diffsmith listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("diffsmith stopped")
}

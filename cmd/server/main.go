package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kdimtricp/medannotate/internal/api"
	"github.com/kdimtricp/medannotate/internal/config"
	"github.com/kdimtricp/medannotate/internal/database"
	"github.com/kdimtricp/medannotate/internal/logging"
	"go.uber.org/zap"
)

func main() {
	seedPath := flag.String("seed", "", "JSON file of candidate texts to load at startup")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Load()

	logger := logging.New(logging.Config{
		FilePath:   cfg.App.LogFilePath,
		Production: cfg.App.Production(),
		Debug:      *debug,
	})
	defer logger.Sync()

	db, err := database.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("running database migrations", zap.String("path", cfg.App.MigrationsPath))
	if err := db.RunMigrations(cfg.App.MigrationsPath); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	repo := database.NewMedicalTextRepository(db)

	if *seedPath != "" {
		if err := seed(repo, *seedPath, logger); err != nil {
			logger.Fatal("failed to seed database", zap.String("file", *seedPath), zap.Error(err))
		}
	}

	app := &api.App{
		Repo:   repo,
		Cache:  api.NewCandidateCache(cfg.App.CacheTTL),
		Logger: logger,
	}

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	dbFields := []zap.Field{zap.String("db_type", cfg.Database.Type)}
	if cfg.Database.Type == "postgres" {
		dbFields = append(dbFields, zap.String("db", cfg.Database.User+"@"+cfg.Database.Host+"/"+cfg.Database.Name))
	} else {
		dbFields = append(dbFields, zap.String("db_path", cfg.Database.SQLitePath))
	}
	logger.Info("server starting", append(dbFields, zap.String("port", cfg.App.Port), zap.Duration("cache_ttl", cfg.App.CacheTTL))...)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("server failed", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func seed(repo *database.MedicalTextRepository, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := repo.Seed(ctx, f)
	if err != nil {
		return err
	}
	logger.Info("seeded candidate texts", zap.Int("count", n), zap.String("file", path))
	return nil
}

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

	"ctchen222/Bookshelf/internal/api/controller"
	apirepository "ctchen222/Bookshelf/internal/api/repository"
	"ctchen222/Bookshelf/internal/api/service"
	"ctchen222/Bookshelf/internal/auth"
	"ctchen222/Bookshelf/internal/config"
	"ctchen222/Bookshelf/internal/db"
	"ctchen222/Bookshelf/internal/logger"
	"ctchen222/Bookshelf/internal/repository"
	"ctchen222/Bookshelf/internal/server"
	"ctchen222/Bookshelf/internal/telemetry"
	"ctchen222/Bookshelf/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry before the logger so the otelslog bridge picks up
	// the global logger provider.
	shutdown, err := telemetry.InitOtel(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()
	logger.Init(cfg.LogLevel)

	gin.SetMode(cfg.GinMode)
	validator.UseForGin()

	pool, err := db.InitializeDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	summaries := repository.NewNoopSummaryRepository()
	if cfg.CacheEnabled() {
		rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, library summary cache disabled", "error", err)
		} else {
			defer rdb.Close()
			summaries = repository.NewSummaryRepository(rdb, cfg.SummaryCacheTTL)
		}
	}

	// Create auth components
	issuer, err := auth.NewTokenIssuer(cfg)
	if err != nil {
		return err
	}
	store := apirepository.NewStore(pool)
	resolver := auth.NewResolver(issuer, store.Users())
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	// Create services
	userService := service.NewUserService(store, hasher, issuer, resolver)
	bookService := service.NewBookService(store, summaries)

	// Create controllers
	userController := controller.NewUserController(userService)
	bookController := controller.NewBookController(bookService)

	srv := server.NewServer(cfg, store, resolver, userController, bookController)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return err
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("Server exiting")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tempizhere/shortlink/internal/app"
	"github.com/tempizhere/shortlink/internal/cache"
	"github.com/tempizhere/shortlink/internal/config"
	"github.com/tempizhere/shortlink/internal/log"
	"github.com/tempizhere/shortlink/internal/metrics"
	"github.com/tempizhere/shortlink/internal/repository"
	"github.com/tempizhere/shortlink/internal/service"
	"github.com/tempizhere/shortlink/internal/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := log.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// storage объединяет хранилище пользователей и ссылок с ресурсами, которые нужно закрыть
type storage struct {
	users  repository.UserRepository
	links  repository.LinkRepository
	db     repository.Database
	closer []io.Closer
}

func (s *storage) Close() error {
	var errs []error
	for i := len(s.closer) - 1; i >= 0; i-- {
		errs = append(errs, s.closer[i].Close())
	}
	return errors.Join(errs...)
}

// openStorage выбирает хранилище: PostgreSQL, затем SQLite, иначе память.
// При заданном адресе Redis переходы читаются через кэш.
func openStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*storage, error) {
	s := &storage{}

	switch cfg.Storage() {
	case "postgres":
		db, err := app.NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewPostgresRepository(db, logger)
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		s.users, s.links, s.db = repo, repo, db
		s.closer = append(s.closer, db)
	case "sqlite":
		repo, err := repository.NewSQLiteRepository(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		s.users, s.links, s.db = repo, repo, repo.DB()
		s.closer = append(s.closer, repo)
	default:
		repo := repository.NewMemoryRepository()
		s.users, s.links = repo, repo
	}
	logger.Info("Storage selected", zap.String("storage", cfg.Storage()))

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		s.links = repository.NewCachedLinkRepository(s.links, cache.NewRedisCache(client, cache.DefaultTTL), logger).
			WithMetrics(m)
		s.closer = append(s.closer, client)
		logger.Info("Redis cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	return s, nil
}

// warnInsecureDefaults предупреждает о настройках, с которыми сервис нельзя выпускать наружу
func warnInsecureDefaults(cfg *config.Config, logger *zap.Logger) {
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT secret is the built-in default, tokens can be forged; set JWT_SECRET or -j")
	}
}

// run поднимает HTTP-сервер и блокируется до отмены ctx
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	warnInsecureDefaults(cfg, logger)
	m := metrics.New()

	store, err := openStorage(ctx, cfg, m, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	a := app.NewApp(
		service.NewUserService(store.users, logger),
		service.NewLinkService(store.links, logger),
		token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		store.db, m, logger,
	)

	srv := &http.Server{
		Addr: cfg.RunAddr,
		Handler: app.NewRouter(a, app.RouterConfig{
			APIPrefix:      cfg.APIPrefix,
			RequestTimeout: cfg.RequestTimeout,
			TrustedSubnet:  cfg.TrustedSubnet,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.RunAddr),
			zap.String("api_prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

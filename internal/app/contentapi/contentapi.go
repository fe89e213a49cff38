// Package contentapi assembles the HTTP application: storage, migrations,
// cache, broker, services, router and server lifecycle.
package contentapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/kidsweekly/content-api/internal/cache"
	"github.com/kidsweekly/content-api/internal/config"
	"github.com/kidsweekly/content-api/internal/lib/jwt"
	"github.com/kidsweekly/content-api/internal/lib/rabbitmq"
	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/metrics"
	"github.com/kidsweekly/content-api/internal/migrations"
	articleservice "github.com/kidsweekly/content-api/internal/services/article"
	authservice "github.com/kidsweekly/content-api/internal/services/auth"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

// App holds the running server and the resources it owns.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	publisher *rabbitmq.Publisher
}

// New builds the application from configuration. The broker is optional:
// when it is unreachable the service starts anyway and approval events are
// skipped.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var events articleservice.EventPublisher
	var publisher *rabbitmq.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("broker unavailable, approval events disabled", sl.Err(err))
		} else {
			events = publisher
		}
	}

	metrics.Init()

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	authSvc := authservice.NewAuthService(db, jwtMaker)
	articleSvc := articleservice.NewArticleService(db, cacheRedis, events, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authSvc, articleSvc)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		publisher: publisher,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.publisher != nil {
			a.publisher.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}

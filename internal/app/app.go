package app

import (
	"context"
	"errors"
	"net/http"

	"child-growth-go/internal/config"
	"child-growth-go/internal/db"
	calendardomain "child-growth-go/internal/domain/calendar"
	childdomain "child-growth-go/internal/domain/child"
	sharingdomain "child-growth-go/internal/domain/sharing"
	userdomain "child-growth-go/internal/domain/user"
	"child-growth-go/internal/gateway/google"
	"child-growth-go/internal/repository/inmemory"
	calendarrepo "child-growth-go/internal/repository/postgres/calendar"
	childrepo "child-growth-go/internal/repository/postgres/child"
	sharingrepo "child-growth-go/internal/repository/postgres/sharing"
	userrepo "child-growth-go/internal/repository/postgres/user"
	redisrepo "child-growth-go/internal/repository/redis"
	"child-growth-go/internal/transport/httpserver"
	"child-growth-go/internal/transport/httpserver/handler"
	"child-growth-go/pkg/logger"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	redis      *redis.Client
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: dbConn}
	limiter := a.attemptLimiter(ctx, log)

	children := childdomain.NewService(childrepo.NewPostgres(dbConn))
	profiles := userdomain.NewService(userrepo.NewPostgres(dbConn))
	sharing := sharingdomain.NewService(sharingrepo.NewPostgres(dbConn), children, limiter, sharingdomain.Options{
		PublicBaseURL:    cfg.Sharing.PublicBaseURL,
		MaxExpiresInDays: cfg.Sharing.MaxExpiresInDays,
		MaxAttempts:      cfg.Sharing.MaxAttempts,
		AttemptWindow:    cfg.Sharing.AttemptWindow,
	})
	broker := calendardomain.NewBroker(
		calendarrepo.NewPostgres(dbConn),
		google.NewOAuthClient(cfg.Calendar),
		google.NewCalendarClient(cfg.Calendar),
		log.With("component", "calendar"),
	)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handler.New(sharing, broker, log), profiles, log)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

// attemptLimiter prefers Redis so every instance shares one budget per token.
func (a *App) attemptLimiter(ctx context.Context, log logger.Logger) sharingdomain.AttemptLimiter {
	if !a.cfg.Redis.Enabled() {
		log.Info("app: redis not configured, share attempts counted in memory")
		return inmemory.NewAttemptCounter()
	}

	client, err := redisrepo.NewClient(ctx, a.cfg.Redis)
	if err != nil {
		log.Warn("app: redis unavailable, share attempts counted in memory", "addr", a.cfg.Redis.Addr, "err", err)
		return inmemory.NewAttemptCounter()
	}

	a.redis = client
	return redisrepo.NewAttemptCounter(client, a.cfg.Redis.KeyPrefix)
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

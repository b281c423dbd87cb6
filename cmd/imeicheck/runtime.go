package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/imei-service/internal/api/http"
	"github.com/spec-kit/imei-service/internal/api/http/handlers"
	"github.com/spec-kit/imei-service/internal/auth"
	"github.com/spec-kit/imei-service/internal/bot"
	"github.com/spec-kit/imei-service/internal/config"
	"github.com/spec-kit/imei-service/internal/events"
	"github.com/spec-kit/imei-service/internal/lookup"
	"github.com/spec-kit/imei-service/internal/observability"
	"github.com/spec-kit/imei-service/internal/persistence"
	"github.com/spec-kit/imei-service/internal/repository"
	"github.com/spec-kit/imei-service/internal/service"
	"github.com/spec-kit/imei-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// runtime carries what every subcommand shares.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	events  events.Dispatcher
}

func newRuntime(cfg *config.Config, logger *zap.Logger) *runtime {
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		events:  events.NewInMemoryDispatcher(logger),
	}
}

func (rt *runtime) newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.TokenTTL())
}

func (rt *runtime) newCheckService() *service.CheckService {
	client := lookup.NewClient(lookup.Config{
		BaseURL:   rt.cfg.Upstream.BaseURL,
		APIKey:    rt.cfg.Upstream.APIKey,
		ServiceID: rt.cfg.Upstream.ServiceID,
		Timeout:   rt.cfg.Upstream.Timeout(),
	})
	return service.NewCheckService(service.CheckDependencies{
		Lookup:     client,
		Dispatcher: rt.events,
		Metrics:    rt.metrics,
		Logger:     rt.logger,
	})
}

func (rt *runtime) newServer(tokens *auth.TokenManager, checks *service.CheckService, ready map[string]handlers.Pinger) *fiber.App {
	return httptransport.NewServer(httptransport.ServerConfig{
		AppName:        rt.cfg.App.Name,
		RequestTimeout: rt.cfg.App.RequestTimeout(),
		Logger:         rt.logger,
		Metrics:        rt.metrics,
		Routes: httptransport.RouteConfig{
			Health:  handlers.NewHealthHandler(rt.cfg.App.Name, rt.cfg.App.Version, ready),
			IMEI:    handlers.NewIMEIHandler(checks, tokens),
			Metrics: rt.metrics.Handler(),
		},
	})
}

// serve runs app until ctx is cancelled, then drains in-flight requests.
func (rt *runtime) serve(ctx context.Context, app *fiber.App) error {
	addr := rt.cfg.App.Addr()
	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		rt.logger.Info("shutting down http server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}

// allowListStore is the opened allow-list backend and its cleanup.
type allowListStore struct {
	allowList *service.AllowListService
	close     func()
}

func (s *allowListStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func (rt *runtime) openAllowList(ctx context.Context) (*allowListStore, error) {
	switch rt.cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, rt.cfg.Postgres, rt.logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), rt.logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repo := repository.NewPostgresAllowListRepository(pg.PoolHandle())
		return &allowListStore{
			allowList: service.NewAllowListService(repo, rt.events),
			close:     pg.Close,
		}, nil
	default:
		db, err := persistence.OpenSQLite(ctx, rt.cfg.Store.SQLitePath, rt.logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo := repository.NewSQLiteAllowListRepository(db)
		return &allowListStore{
			allowList: service.NewAllowListService(repo, rt.events),
			close:     func() { closeDB(db, rt.logger) },
		}, nil
	}
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("closing sqlite", zap.Error(err))
	}
}

func readinessChecks(store *allowListStore, redis *persistence.Redis) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"store": store.allowList}
	if redis != nil {
		checks["redis"] = redis
	}
	return checks
}

// runBot polls Telegram until ctx is cancelled. The administrator is put on the
// allow-list before polling starts.
func (rt *runtime) runBot(ctx context.Context, tg *bot.Telegram, allowList *service.AllowListService, redis *persistence.Redis, checker bot.Checker) error {
	adminID := rt.cfg.Bot.AdminID
	worker.StartNotificationWorker(service.NewNotificationService(rt.events, rt.logger, tg, adminID))

	if err := seedAdmin(ctx, allowList, adminID); err != nil {
		return err
	}

	var states bot.StateStore = bot.NewMemoryStateStore()
	if redis != nil {
		states = bot.NewRedisStateStore(redis.Client, rt.cfg.Bot.StateTTL())
	}

	engine := bot.NewEngine(bot.EngineConfig{
		States:       states,
		AllowList:    allowList,
		Tokens:       rt.newTokenManager(),
		TokenSubject: rt.cfg.Auth.TokenSubject,
		Checker:      checker,
		Responder:    tg,
		AdminID:      adminID,
		Metrics:      rt.metrics,
		Logger:       rt.logger.Named("bot"),
	})
	dispatcher := bot.NewDispatcher(ctx, engine.Handle, rt.logger.Named("dispatcher"))

	rt.logger.Info("bot started", zap.Int64("admin_id", adminID))
	err := tg.Run(ctx, dispatcher.Dispatch)
	dispatcher.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func seedAdmin(ctx context.Context, allowList *service.AllowListService, adminID int64) error {
	ok, err := allowList.IsAuthorized(ctx, adminID)
	if err != nil {
		return fmt.Errorf("check admin authorization: %w", err)
	}
	if ok {
		return nil
	}
	if err := allowList.Authorize(ctx, adminID, adminID, nil); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

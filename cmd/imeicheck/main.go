package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/imei-service/internal/bot"
	"github.com/spec-kit/imei-service/internal/config"
	"github.com/spec-kit/imei-service/internal/observability"
	"github.com/spec-kit/imei-service/internal/persistence"
)

type cli struct {
	Run   runCmd   `cmd:"" default:"1" help:"Run the HTTP API and the Telegram bot in one process."`
	Serve serveCmd `cmd:"" help:"Run the HTTP API only."`
	Bot   botCmd   `cmd:"" help:"Run the Telegram bot against a deployed HTTP API."`
	Token tokenCmd `cmd:"" help:"Mint a bearer token for the HTTP API."`
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("imeicheck"),
		kong.Description("IMEI validation API and Telegram bot"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rt := newRuntime(cfg, logger)
	if err := kctx.Run(rt); err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

type serveCmd struct{}

func (serveCmd) Run(rt *runtime) error {
	if err := rt.cfg.RequireAPI(); err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	app := rt.newServer(rt.newTokenManager(), rt.newCheckService(), nil)
	return rt.serve(ctx, app)
}

type botCmd struct{}

func (botCmd) Run(rt *runtime) error {
	if err := rt.cfg.RequireBot(); err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	store, err := rt.openAllowList(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	redis := persistence.NewRedis(ctx, rt.cfg.Redis, rt.logger)
	defer redis.Close()

	tg, err := bot.NewTelegram(rt.cfg.Bot.Token, rt.cfg.Bot.PollTimeoutSeconds, rt.logger)
	if err != nil {
		return err
	}

	checker := bot.NewBackendChecker(rt.cfg.Bot.BackendURL, rt.cfg.App.RequestTimeout())
	return rt.runBot(ctx, tg, store.allowList, redis, checker)
}

type runCmd struct{}

func (runCmd) Run(rt *runtime) error {
	if err := rt.cfg.RequireAPI(); err != nil {
		return err
	}
	if err := rt.cfg.RequireBot(); err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	store, err := rt.openAllowList(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	redis := persistence.NewRedis(ctx, rt.cfg.Redis, rt.logger)
	defer redis.Close()

	tg, err := bot.NewTelegram(rt.cfg.Bot.Token, rt.cfg.Bot.PollTimeoutSeconds, rt.logger)
	if err != nil {
		return err
	}

	tokens := rt.newTokenManager()
	checks := rt.newCheckService()
	app := rt.newServer(tokens, checks, readinessChecks(store, redis))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.serve(gctx, app)
	})
	g.Go(func() error {
		return rt.runBot(gctx, tg, store.allowList, redis, bot.NewLocalChecker(tokens, checks))
	})
	return g.Wait()
}

type tokenCmd struct {
	Subject string        `help:"Token subject." default:"user"`
	TTL     time.Duration `name:"ttl" help:"Token lifetime; defaults to AUTH_TOKEN_TTL_HOURS."`
}

func (c tokenCmd) Run(rt *runtime) error {
	if rt.cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	tokens := rt.newTokenManager()

	ttl := c.TTL
	if ttl <= 0 {
		ttl = rt.cfg.Auth.TokenTTL()
	}
	token, expiresAt, err := tokens.GenerateTokenWithTTL(c.Subject, ttl)
	if err != nil {
		return err
	}
	rt.logger.Info("token minted", zap.String("subject", c.Subject), zap.Time("expires_at", expiresAt))
	fmt.Println(token)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Package app wires configuration, storage, the Discord bot, and the HTTP
// server into a runnable service.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/hexforge/hwidgate/internal/bot"
	"github.com/hexforge/hwidgate/internal/config"
	"github.com/hexforge/hwidgate/internal/db"
	gatehttp "github.com/hexforge/hwidgate/internal/http"
	"github.com/hexforge/hwidgate/internal/logging"
	"github.com/hexforge/hwidgate/internal/notify"
	"github.com/hexforge/hwidgate/internal/settings"
	"github.com/hexforge/hwidgate/internal/verify"
)

// Options holds process-level inputs.
type Options struct {
	ConfigPath string // Path from the --config flag; empty falls back to env/default.
}

// Migrate opens the database and runs migrations only.
func Migrate(ctx context.Context, opts Options) error {
	_ = ctx
	cfg, errLoad := config.Load(config.ResolveConfigPath(opts.ConfigPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// Run boots the full service and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(opts.ConfigPath))
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := db.EnsureDefaultAdmin(conn, cfg.Admin.Username, cfg.Admin.Password); errSeed != nil {
		return errSeed
	}
	if errSettings := settings.RefreshDBConfigSnapshot(ctx, conn); errSettings != nil {
		log.WithError(errSettings).Warn("settings snapshot load failed, using defaults")
	}

	webhook := notify.NewWebhook(cfg.Discord.WebhookURL)
	svc := verify.NewService(conn, cfg.Discord.OwnerID, cfg.Access.DefaultDuration, webhook)

	sweeper := verify.NewRetentionSweeper(conn)
	sweeper.Start(ctx)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer func() { _ = rdb.Close() }()
	}

	var discordBot *bot.Bot
	if cfg.Discord.Token != "" {
		var errBot error
		discordBot, errBot = bot.New(cfg.Discord, svc)
		if errBot != nil {
			return errBot
		}
		if errStart := discordBot.Start(); errStart != nil {
			return errStart
		}
		defer discordBot.Close(context.Background())
		log.Info("discord bot started")
	} else {
		log.Warn("discord token not configured, bot disabled")
	}

	router := gatehttp.NewRouter(cfg, conn, svc, rdb)
	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", cfg.Server.Listen)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case errServe := <-serveErr:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		log.WithError(errShutdown).Warn("http server shutdown failed")
	}
	return nil
}

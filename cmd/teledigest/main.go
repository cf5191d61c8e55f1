// Package main contains the entrypoint for the teledigest collector.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/teledigest/internal/bot"
	"github.com/edgard/teledigest/internal/bot/tasks"
	"github.com/edgard/teledigest/internal/config"
	"github.com/edgard/teledigest/internal/dashboard"
	"github.com/edgard/teledigest/internal/database"
	"github.com/edgard/teledigest/internal/gemini"
	"github.com/edgard/teledigest/internal/logger"
	"github.com/edgard/teledigest/internal/summary"
	"github.com/edgard/teledigest/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, db, AI client, telegram
// bot, scheduler, dashboard), handles graceful shutdown, and returns an exit
// code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	if count, err := store.CountMessages(ctx); err != nil {
		log.Warn("Failed to count stored messages", "error", err)
	} else {
		log.Info("Database ready", "messages", count)
	}

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	collector := telegram.NewCollector(store, log)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(collector.Handler()),
		tgbot.WithAllowedUpdates(tgbot.AllowedUpdates{"message", "channel_post"}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	deliverer := telegram.NewDigestSender(tg, cfg.Telegram.DigestChatID, log)
	pipeline := summary.NewPipeline(store, gemClient, log, cfg.Summary)

	tDeps := tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Pipeline:  pipeline,
		Deliverer: deliverer,
		Config:    cfg,
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	var dashboardServer *dashboard.Server
	if cfg.Dashboard.Enabled {
		dashboardServer, err = dashboard.NewServer(cfg.Dashboard, store, log)
		if err != nil {
			log.Error("Failed to create dashboard server", "error", err)
			return 1
		}
	}

	app := bot.NewBot(log, cfg, tg, sched, dashboardServer)

	log.Info("Starting teledigest...")
	runErr := app.Run(ctx)
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

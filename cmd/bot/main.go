// Package main provides the entry point for the expense bot.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tallylabs/expensebot/internal/api"
	"github.com/tallylabs/expensebot/internal/api/health"
	"github.com/tallylabs/expensebot/internal/bot"
	"github.com/tallylabs/expensebot/internal/creds"
	"github.com/tallylabs/expensebot/internal/expense"
	"github.com/tallylabs/expensebot/internal/sheets"
	"github.com/tallylabs/expensebot/internal/shutdown"
	"github.com/tallylabs/expensebot/internal/telegram"
	"github.com/tallylabs/expensebot/pkg/config"
	"github.com/tallylabs/expensebot/pkg/logger"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	// Decode the service account credential
	account, err := creds.ParseServiceAccount(cfg.CredsJSON)
	if err != nil {
		log.Error("failed to parse service account credential", "error", err)
		os.Exit(1)
	}

	// Initialize the Sheets client and the expense service
	tokens := sheets.NewTokenSource(account, sheets.SpreadsheetScope)
	sheetsClient := sheets.NewClient(cfg.SpreadsheetID, tokens, log.WithComponent("sheets").Logger)
	expenses := expense.NewService(sheetsClient, log.WithComponent("expense").Logger)

	// Initialize the Telegram client and the bot
	tg := telegram.NewClient(cfg.BotToken, telegram.WithBaseURL(cfg.TelegramAPI))
	b := bot.New(tg, expenses, log.WithComponent("bot"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.RegisterCommands(ctx); err != nil {
		log.Warn("failed to register command menu", "error", err)
	}

	// Health checks cover both upstreams the bot depends on
	checker := health.NewChecker(version)
	checker.Register("telegram", health.PingerFunc(func(ctx context.Context) error {
		_, err := tg.GetMe(ctx)
		return err
	}))
	checker.Register("sheets", sheetsClient)

	server := api.NewServer(cfg.HTTPHost, cfg.HTTPPort, checker, log.WithComponent("http").Logger)
	poller := telegram.NewPoller(tg, b, cfg.PollTimeout, log.WithComponent("telegram-poller").Logger)

	// Setup graceful shutdown: the poller stops first, the HTTP server last
	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(server)
	coordinator.Register(shutdown.NewFuncComponent("telegram-poller", func(context.Context) error {
		cancel()
		return nil
	}))

	go func() {
		if err := server.Start(); err != nil {
			log.Error("http server failed", "error", err)
			coordinator.Shutdown()
		}
	}()

	go func() {
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("poller stopped", "error", err)
			coordinator.Shutdown()
		}
	}()

	log.Info("expense bot started", "version", version, "http_addr", cfg.HTTPHost, "http_port", cfg.HTTPPort)

	go coordinator.WaitForSignal()
	coordinator.Wait()
	os.Exit(coordinator.ExitCode())
}

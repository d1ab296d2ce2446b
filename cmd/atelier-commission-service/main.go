// Copyright 2026 The Atelier Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/atelier-foundation/atelier/commission"
	"github.com/atelier-foundation/atelier/conversation"
	"github.com/atelier-foundation/atelier/lib/clock"
	"github.com/atelier-foundation/atelier/lib/config"
	"github.com/atelier-foundation/atelier/lib/version"
	"github.com/atelier-foundation/atelier/messaging"
)

// syncFilter restricts /sync to the event types the bot handles.
const syncFilter = `{"room":{"timeline":{"types":["m.room.message","m.reaction"]}}}`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the atelier.yaml config file (overrides ATELIER_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("atelier-commission-service %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsureStateDir(); err != nil {
		return err
	}

	password := os.Getenv("ATELIER_BOT_PASSWORD")
	if password == "" {
		return fmt.Errorf("ATELIER_BOT_PASSWORD environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.Login(ctx, cfg.BotUsername, password)
	if err != nil {
		return fmt.Errorf("logging in as %s: %w", cfg.BotUsername, err)
	}

	service := commission.Open(cfg.StateDir, commission.Options{
		Clock: clk,
		Price: commission.PriceRange{
			Min:      cfg.Price.Min,
			Max:      cfg.Price.Max,
			Currency: cfg.Price.Currency,
		},
		Logger: logger,
	})

	engine := conversation.New(conversation.Options{
		Clock:   clk,
		IdleTTL: cfg.SessionTTL.Std(),
		Logger:  logger,
	})
	go engine.Run(ctx)

	messenger := messaging.NewGateway(session, logger)
	b := newBot(service, engine, messenger, cfg.OperatorID(), logger)

	// Initial sync: join pending invites, skip the backlog. Commands
	// sent while the bot was down are not replayed.
	sinceToken, initial, err := messaging.InitialSync(ctx, session, syncFilter)
	if err != nil {
		return err
	}
	messaging.AcceptInvites(ctx, session, initial.Rooms.Invite, logger)

	logger.Info("commission service running",
		"user_id", session.UserID(),
		"state_dir", cfg.StateDir,
		"operator", cfg.OperatorID(),
	)

	handler := func(ctx context.Context, response *messaging.SyncResponse) {
		messaging.AcceptInvites(ctx, session, response.Rooms.Invite, logger)
		for _, inbound := range messaging.DecodeSync(session.UserID(), response) {
			messenger.ObserveSender(inbound.Event.Sender, inbound.Room)
			b.route(ctx, inbound.Event)
		}
	}
	messaging.RunSyncLoop(ctx, session, messaging.SyncConfig{Filter: syncFilter}, sinceToken, handler, clk, logger)

	logger.Info("shutting down")
	return nil
}

// Command boot is the main entrypoint for the chat bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Builds the fetcher set, the dispatcher, and the chat transport.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/boot/bot"
	"github.com/onnwee/boot/chat"
	"github.com/onnwee/boot/config"
	"github.com/onnwee/boot/db"
	"github.com/onnwee/boot/fetch"
	"github.com/onnwee/boot/server"
	"github.com/onnwee/boot/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()

	// Optional tracing; requires OTEL_EXPORTER_OTLP_ENDPOINT.
	shutdownTracing, err := telemetry.InitTracing("boot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	database, err := db.Connect()
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, database); err != nil {
		slog.Error("failed to migrate db", slog.Any("err", err))
		os.Exit(1)
	}

	// Hangman word list; the game stays disabled when the file is missing.
	var words *bot.WordList
	if wl, err := bot.LoadWords(cfg.WordsFile); err != nil {
		slog.Warn("word list unavailable; hangman disabled", slog.Any("err", err), slog.String("path", cfg.WordsFile))
	} else {
		words = wl
	}

	dispatcher := bot.New(bot.Options{
		OwnNick:         cfg.BotUsername,
		BareGuess:       cfg.HangBareGuess,
		Store:           db.NewStore(database),
		Fetchers:        fetch.New(cfg),
		Words:           words,
		CoinCacheWindow: cfg.CoinCacheWindow,
		MaxFetchTasks:   cfg.MaxFetchTasks,
	})

	events := make(chan bot.Event, 32)
	go dispatcher.Run(ctx, events)

	go func() {
		if err := chat.Run(ctx, cfg, events, dispatcher.Replies()); err != nil {
			slog.Error("chat transport exited with error", slog.Any("err", err))
			stop()
		}
	}()

	go func() {
		if err := server.Start(ctx, database, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

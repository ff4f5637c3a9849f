package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/bot"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/cleanup"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/config"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/coordinator"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/storage"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/transcription"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ring := newLogRing(1000)
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(io.MultiWriter(console, ring)).With().Timestamp().Logger()

	store := storage.NewScratchStore(cfg.Storage.TempDir, logger.With().Str("component", "storage").Logger())
	if err := store.EnsureDir(); err != nil {
		logger.Fatal().Err(err).Msg("failed to create scratch directory")
	}

	sweeper := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		time.Duration(cfg.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour,
		logger.With().Str("component", "cleanup").Logger(),
	)
	sweeper.Start()
	defer sweeper.Stop()

	extractor := transcription.NewFFmpegExtractor(cfg.FFmpeg.Bin,
		logger.With().Str("component", "extractor").Logger())
	transcriber := transcription.NewWhisperTranscriber(cfg.Whisper.Python, cfg.Whisper.Threads,
		logger.With().Str("component", "whisper").Logger())

	tgBot, err := bot.New(cfg.Telegram.Token, cfg.Telegram.PollTimeoutSec,
		logger.With().Str("component", "bot").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to telegram")
	}

	coord := coordinator.New(store, extractor, transcriber, tgBot, tgBot,
		coordinator.Options{
			MaxVideoBytes: cfg.MaxVideoBytes(),
			InlineLimit:   cfg.Limits.InlineCharLimit,
			JobTimeout:    cfg.JobTimeout(),
		},
		logger.With().Str("component", "coordinator").Logger(),
	)
	tgBot.SetCoordinator(coord)

	// Operational status server.
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/jobs", func(c *fiber.Ctx) error {
		return c.JSON(coord.ActiveSessions())
	})
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"logs": ring.Lines()})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info().Str("addr", addr).Msg("status server listening")
		if err := app.Listen(addr); err != nil {
			logger.Error().Err(err).Msg("status server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("bot is running")
	tgBot.Run(ctx)

	logger.Info().Msg("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("status server shutdown failed")
	}
}

// logRing keeps the most recent log lines in memory for /logs.
type logRing struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func newLogRing(max int) *logRing {
	return &logRing{max: max, lines: make([]string, 0, max)}
}

func (r *logRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, string(p))
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
	return len(p), nil
}

func (r *logRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourorg/helpdesk/chat-service/internal/api"
	"github.com/yourorg/helpdesk/chat-service/internal/attach"
	"github.com/yourorg/helpdesk/chat-service/internal/auth"
	"github.com/yourorg/helpdesk/chat-service/internal/cache"
	"github.com/yourorg/helpdesk/chat-service/internal/chat"
	"github.com/yourorg/helpdesk/chat-service/internal/config"
	"github.com/yourorg/helpdesk/chat-service/internal/events"
	"github.com/yourorg/helpdesk/chat-service/internal/store"
	"github.com/yourorg/helpdesk/chat-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}

	logger := newLogger(cfg.App.Env)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("data dir")
	}
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("store open")
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
		defer kp.Close()
		pub = kp
	}

	var uploader attach.Uploader
	serveBlobs := ""
	if cfg.S3.Enabled {
		s3up, err := attach.NewS3Uploader(context.Background(), cfg.S3.Region, cfg.S3.Bucket, cfg.S3.PublicRead, cfg.S3.PresignTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("s3 uploader")
		}
		uploader = s3up
	} else {
		local, err := attach.NewLocalUploader(cfg.Store.BlobDir, cfg.Store.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("local uploader")
		}
		uploader = local
		serveBlobs = local.Dir()
	}

	clock := clockwork.NewRealClock()
	svc := chat.NewService(st, pub, uploader, clock, logger)
	if cfg.Chat.SimulateAcks {
		acker := chat.NewAcker(svc, clock, cfg.Chat.DeliverAfter, cfg.Chat.ReadAfter)
		defer acker.Close()
		svc.SetAcker(acker)
	}

	var presence *cache.Presence
	if cfg.Redis.Addr != "" {
		presence, err = cache.NewPresence(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer presence.Close()
	}

	hub := ws.NewHub(svc, presence, logger)
	validator := auth.NewValidator(cfg.JWT.Secret)
	app := api.NewServer(svc, hub, validator, logger, api.Options{BlobDir: serveBlobs})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		if err := app.Listen(addr); err != nil {
			logger.Fatal().Err(err).Msg("server listen")
		}
	}()
	logger.Info().Int("port", cfg.App.Port).Msg("chat service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	logger.Info().Msg("chat service stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrowgate/goqtt/internal/auth"
	"github.com/harrowgate/goqtt/internal/broker"
	"github.com/harrowgate/goqtt/internal/config"
	"github.com/harrowgate/goqtt/internal/logger"
	"github.com/harrowgate/goqtt/internal/transport"
)

func gracefulShutdown(tcpServer *transport.TCPServer, stats *broker.StatsReporter, cancel context.CancelFunc, done chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("graceful shutdown triggered")

	defer cancel()
	stats.Stop()
	if err := tcpServer.Stop(); err != nil {
		log.Println(err)
	}
	time.Sleep(1 * time.Second)

	close(done)
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return logger.LevelDebug
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	case "fatal":
		return logger.LevelFatal
	default:
		return logger.LevelInfo
	}
}

func main() {
	done := make(chan struct{}, 1)

	cfg, err := config.Load("config.yml")
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}

	log := logger.New(logger.Config{
		Level:     logLevel(cfg.Logging.Level),
		Format:    cfg.Logging.Format,
		Component: "goqtt",
		Service:   cfg.Name,
		Version:   cfg.Version,
	})

	db, err := sql.Open("sqlite3", cfg.Auth.DBPath)
	if err != nil {
		log.Fatal("failed to open sqlite db", slog.Any("error", err))
	}

	authStore, err := auth.New(db, cfg.Auth.AllowAnonymous)
	if err != nil {
		log.Fatal("failed to initialize auth store", slog.Any("error", err))
	}

	b := broker.New(authStore, logger.NewMQTTLogger("broker"))
	stats := broker.NewStatsReporter(b)

	ctx, cancel := context.WithCancel(context.Background())

	srv := transport.New(cfg.Server.Port, b, logger.NewMQTTLogger("transport"))

	go func() {
		if err := srv.Start(ctx); err != nil {
			log.Fatal("server error", slog.Any("error", err))
		}
	}()
	log.Info("server started listening", slog.String("port", cfg.Server.Port))

	go gracefulShutdown(srv, stats, cancel, done)

	<-done
	log.Info("graceful shutdown complete")
}

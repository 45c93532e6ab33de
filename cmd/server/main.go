package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bankcore/ledger-engine/internal/api"
	"github.com/bankcore/ledger-engine/internal/config"
	"github.com/bankcore/ledger-engine/internal/events/kafka"
	"github.com/bankcore/ledger-engine/internal/interfaces"
	"github.com/bankcore/ledger-engine/internal/ledger"
	"github.com/bankcore/ledger-engine/internal/storage/memory"
	"github.com/bankcore/ledger-engine/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	var store interfaces.LedgerStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connect to postgres", zap.Error(err))
		}
		defer pg.Close()
		store = pg
		logger.Info("using postgres store")
	} else {
		store = memory.NewStore()
		logger.Info("using in-memory store")
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("publishing events", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	engine := ledger.NewLedger(store, logger, publisher)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewServer(engine, logger).Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	return logger
}

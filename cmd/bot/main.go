package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/app"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("trace.moe KakaoTalk Bot starting",
		zap.String("log_level", cfg.Logging.Level),
		zap.String("iris", cfg.Iris.BaseURL),
		zap.Strings("rooms", cfg.Kakao.Rooms),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("assemble services: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, constants.APIConfig.IrisTimeout)
	if container.CheckIris(pingCtx) {
		logger.Info("Iris API reachable")
	} else {
		logger.Warn("Iris API not reachable, relying on websocket reconnects",
			zap.String("base_url", cfg.Iris.BaseURL))
	}
	pingCancel()

	kakaoBot, err := container.NewBot()
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- kakaoBot.Start(ctx)
	}()

	var startErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case startErr = <-errCh:
		stop()
	}

	budget := app.ShutdownTimeout(cfg)
	logger.Info("Shutting down", zap.Duration("budget", budget))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), budget)
	defer shutdownCancel()
	if err := kakaoBot.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	return startErr
}

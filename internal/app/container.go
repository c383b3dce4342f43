package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/adapter"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/bot"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/iris"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/recognition"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/tracemoe"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing runtime components like Bot.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	botDeps *bot.Dependencies
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// CheckIris reports whether the Iris HTTP API answers. The websocket keeps
// retrying on its own, so a failed check is not fatal.
func (c *Container) CheckIris(ctx context.Context) bool {
	if c == nil || c.botDeps == nil || c.botDeps.IrisClient == nil {
		return false
	}
	return c.botDeps.IrisClient.Ping(ctx)
}

// ShutdownTimeout is long enough for an in-flight search to finish: one
// provider call plus the placeholder delete and the final reply.
func ShutdownTimeout(cfg *config.Config) time.Duration {
	providerTimeout := constants.APIConfig.TraceMoeTimeout
	if cfg != nil && cfg.TraceMoe.Timeout > 0 {
		providerTimeout = cfg.TraceMoe.Timeout
	}
	return providerTimeout + 2*constants.APIConfig.IrisTimeout
}

// Build assembles the Iris transport, the trace.moe client and the recognition
// pipeline. Nothing here performs network I/O; the Iris connection is opened
// by Bot.Start.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	// Messaging primitives
	irisClient := iris.NewClient(cfg.Iris.BaseURL, logger)
	irisWS := iris.NewWebSocket(cfg.Iris.WSURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		logger,
	)
	messageAdapter := adapter.NewMessageAdapter(cfg.Bot.Prefix)
	formatter := adapter.NewResponseFormatter(cfg.Bot.Prefix)

	// Recognition
	traceClient := tracemoe.NewClient(cfg.TraceMoe.BaseURL, cfg.TraceMoe.Timeout, logger)
	opts := recognition.OptionsFromConfig(cfg.TraceMoe)
	pipeline := recognition.NewPipeline(traceClient, irisClient, opts, logger)

	logger.Info("Recognition pipeline ready",
		zap.String("provider", cfg.TraceMoe.BaseURL),
		zap.Float64("min_similarity", opts.MinSimilarity),
		zap.Bool("cut_borders", opts.CutBorders),
		zap.Bool("use_forward", opts.UseForward),
		zap.String("platform", cfg.Bot.Platform),
		zap.Int("max_concurrency", cfg.Bot.MaxConcurrency),
	)

	deps := &bot.Dependencies{
		Config:         cfg,
		Logger:         logger,
		IrisClient:     irisClient,
		IrisWebSocket:  irisWS,
		MessageAdapter: messageAdapter,
		Formatter:      formatter,
		TraceMoe:       traceClient,
		Pipeline:       pipeline,
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		botDeps: deps,
	}, nil
}

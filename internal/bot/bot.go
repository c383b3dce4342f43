package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/adapter"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/command"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/iris"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/recognition"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/tracemoe"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Dependencies is the pre-built service graph handed to NewBot.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	IrisClient     *iris.Client
	IrisWebSocket  *iris.WebSocket
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	TraceMoe       *tracemoe.Client
	Pipeline       *recognition.Pipeline
}

// Bot routes Iris events to commands. Each inbound event gets its own pool
// goroutine; at most cap(slots) of them run a command at once and the rest
// wait for a slot. Invocations share nothing but read-only services.
type Bot struct {
	deps       *Dependencies
	logger     *zap.Logger
	registry   *command.Registry
	dispatcher command.Dispatcher
	workers    *pool.Pool
	slots      chan struct{}
	stopping   atomic.Bool
	submitMu   sync.Mutex
	drainOnce  sync.Once
	drained    chan struct{}
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil || deps.Config == nil || deps.Logger == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	if deps.IrisClient == nil || deps.MessageAdapter == nil || deps.Formatter == nil || deps.Pipeline == nil {
		return nil, fmt.Errorf("bot services not initialized")
	}

	b := &Bot{
		deps:     deps,
		logger:   deps.Logger,
		registry: command.NewRegistry(),
		workers:  pool.New(),
		slots:    make(chan struct{}, util.Max(deps.Config.Bot.MaxConcurrency, 1)),
		drained:  make(chan struct{}),
	}

	cmdDeps := &command.Dependencies{
		Recognizer:  deps.Pipeline,
		Formatter:   deps.Formatter,
		SendMessage: b.sendMessage,
		SendReply:   b.sendReply,
		Logger:      deps.Logger,
	}
	b.registry.Register(command.NewTraceCommand(cmdDeps))
	b.registry.Register(command.NewHelpCommand(cmdDeps))
	b.dispatcher = command.NewSequentialDispatcher(b.registry, command.DefaultNormalize)

	return b, nil
}

// Start connects to Iris and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.deps.IrisWebSocket == nil {
		return fmt.Errorf("iris websocket not configured")
	}

	b.logger.Info("Commands registered", zap.Strings("commands", b.registry.Names()))
	b.logQuota(ctx)

	b.deps.IrisWebSocket.OnStateChange(b.onConnectionState)
	b.deps.IrisWebSocket.OnMessage(func(message *iris.Message) {
		b.submit(ctx, message)
	})

	if err := b.deps.IrisWebSocket.Connect(ctx); err != nil {
		b.logger.Warn("Initial Iris connection failed, reconnect scheduled", zap.Error(err))
	}

	<-ctx.Done()
	return nil
}

// Shutdown stops accepting events and waits for running invocations.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.submitMu.Lock()
	b.stopping.Store(true)
	b.submitMu.Unlock()

	if b.deps.IrisWebSocket != nil {
		if err := b.deps.IrisWebSocket.Disconnect(); err != nil {
			b.logger.Warn("Failed to disconnect Iris websocket", zap.Error(err))
		}
	}

	b.drainOnce.Do(func() {
		go func() {
			b.workers.Wait()
			close(b.drained)
		}()
	})

	select {
	case <-b.drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running commands: %w", ctx.Err())
	}
}

// submit never blocks: it runs on the websocket listener goroutine.
func (b *Bot) submit(ctx context.Context, message *iris.Message) {
	b.submitMu.Lock()
	defer b.submitMu.Unlock()
	if b.stopping.Load() {
		return
	}

	b.workers.Go(func() {
		select {
		case b.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-b.slots }()

		defer func() {
			if r := recover(); r != nil {
				err := errors.NewBotError("command handler panicked", errors.CodeBotError, 500, map[string]any{
					"room": message.Room,
				}).WithCause(fmt.Errorf("%v", r))
				b.logger.Error("Command handler panicked", zap.Error(err))
			}
		}()
		b.handleMessage(ctx, message)
	})
}

func (b *Bot) onConnectionState(state iris.WebSocketState) {
	switch state {
	case iris.WSStateFailed:
		b.logger.Warn("Iris connection failed")
	case iris.WSStateConnected:
		b.logger.Info("Iris connected, accepting commands")
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *iris.Message) {
	if message == nil {
		return
	}

	room, messageID, platform := b.routing(message)
	if !b.deps.Config.RoomAllowed(message.Room) && !b.deps.Config.RoomAllowed(room) {
		return
	}

	parsed := b.deps.MessageAdapter.ParseMessage(message)
	if parsed.Type == domain.CommandUnknown {
		return
	}

	sender := ""
	if message.Sender != nil {
		sender = *message.Sender
	}
	// KakaoTalk names 1:1 rooms after the other participant
	isGroupChat := sender != "" && sender != message.Room

	cmdCtx := domain.NewCommandContext(room, message.Room, sender, parsed.RawMessage, isGroupChat).
		WithMessage(messageID, platform, parsed.Elements)

	b.logger.Debug("Command received",
		zap.String("command", parsed.Type.String()),
		zap.String("room", room),
		zap.String("sender", sender),
	)

	if _, err := b.dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{
		Type:   parsed.Type,
		Params: parsed.Params,
	}); err != nil {
		b.logger.Error("Command execution failed",
			zap.String("command", parsed.Type.String()),
			zap.String("room", room),
			zap.Error(err),
		)
	}
}

// routing picks the reply target, the source message id and the platform.
// Iris replies address rooms by chat id when one is present.
func (b *Bot) routing(message *iris.Message) (room, messageID, platform string) {
	room = message.Room
	platform = b.deps.Config.Bot.Platform
	if message.JSON != nil {
		if message.JSON.ChatID != "" {
			room = message.JSON.ChatID
		}
		messageID = message.JSON.ID
		if message.JSON.Platform != "" {
			platform = message.JSON.Platform
		}
	}
	return room, messageID, platform
}

func (b *Bot) sendMessage(ctx context.Context, room, message string) error {
	return b.deps.IrisClient.SendMessage(ctx, room, message)
}

func (b *Bot) sendReply(ctx context.Context, room string, reply *domain.Reply) error {
	return b.deps.IrisClient.SendReply(ctx, room, reply)
}

func (b *Bot) logQuota(ctx context.Context) {
	apiKey := b.deps.Config.TraceMoe.APIKey
	if b.deps.TraceMoe == nil || apiKey == "" {
		return
	}

	quota, err := b.deps.TraceMoe.Me(ctx, apiKey)
	if err != nil {
		return
	}
	b.logger.Info("trace.moe quota",
		zap.Int("quota", quota.Quota),
		zap.Int("used", quota.QuotaUsed),
		zap.Int("concurrency", quota.Concurrency),
	)
}

package command

import (
	"context"
	"fmt"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// TraceCommand answers with the anime and scene an attached image comes from.
type TraceCommand struct {
	deps *Dependencies
}

func NewTraceCommand(deps *Dependencies) *TraceCommand {
	return &TraceCommand{deps: deps}
}

func (c *TraceCommand) Name() string {
	return string(domain.CommandTrace)
}

func (c *TraceCommand) Description() string {
	return "첨부한 이미지의 애니메이션 장면 검색"
}

func (c *TraceCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.ensureDeps(); err != nil {
		return err
	}

	result, err := c.deps.Recognizer.Run(ctx, cmdCtx)
	if err != nil {
		c.logOutcome(cmdCtx, err)
		return c.deps.SendMessage(ctx, cmdCtx.Room, c.deps.Formatter.FormatRecognitionError(err))
	}

	c.deps.Logger.Info("Scene search matched",
		zap.String("room", cmdCtx.Room),
		zap.String("title", result.Match.Title.Display()),
		zap.String("episode", result.Match.Episode),
		zap.Float64("similarity", result.Similarity),
	)
	return c.deps.SendReply(ctx, cmdCtx.Room, result.Reply)
}

// logOutcome keeps user-side outcomes out of the error log; only provider
// failures and unexpected errors are reported as errors.
func (c *TraceCommand) logOutcome(cmdCtx *domain.CommandContext, err error) {
	recErr, ok := errors.AsRecognitionError(err)
	if !ok || recErr.Kind == errors.KindProviderUnavailable {
		c.deps.Logger.Error("Scene search failed",
			zap.String("room", cmdCtx.Room),
			zap.Error(err),
		)
		return
	}

	c.deps.Logger.Debug("Scene search ended without a match",
		zap.String("room", cmdCtx.Room),
		zap.String("kind", recErr.Kind.String()),
	)
}

func (c *TraceCommand) ensureDeps() error {
	if c == nil || c.deps == nil {
		return fmt.Errorf("trace command dependencies not configured")
	}

	if c.deps.SendMessage == nil || c.deps.SendReply == nil {
		return fmt.Errorf("message callbacks not configured")
	}

	if c.deps.Recognizer == nil || c.deps.Formatter == nil || c.deps.Logger == nil {
		return fmt.Errorf("trace command services not configured")
	}

	return nil
}

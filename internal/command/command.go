package command

import (
	"context"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/adapter"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/service/recognition"
	"go.uber.org/zap"
)

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// Recognizer runs the scene search pipeline.
type Recognizer interface {
	Run(ctx context.Context, cmdCtx *domain.CommandContext) (*recognition.Result, error)
	Options() recognition.Options
}

type Dependencies struct {
	Recognizer  Recognizer
	Formatter   *adapter.ResponseFormatter
	SendMessage func(ctx context.Context, room, message string) error
	SendReply   func(ctx context.Context, room string, reply *domain.Reply) error
	Logger      *zap.Logger
}

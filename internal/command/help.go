package command

import (
	"context"
	"fmt"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
)

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Name() string {
	return string(domain.CommandHelp)
}

func (c *HelpCommand) Description() string {
	return "도움말을 표시합니다"
}

func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if c == nil || c.deps == nil || c.deps.Formatter == nil || c.deps.SendMessage == nil || c.deps.Recognizer == nil {
		return fmt.Errorf("help command dependencies not configured")
	}

	message := c.deps.Formatter.FormatHelp(c.deps.Recognizer.Options().MinSimilarity)
	return c.deps.SendMessage(ctx, cmdCtx.Room, message)
}

package adapter

import (
	"fmt"
	"strings"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
)

// ResponseFormatter formats bot responses
type ResponseFormatter struct {
	prefix string
}

// NewResponseFormatter creates a new ResponseFormatter
func NewResponseFormatter(prefix string) *ResponseFormatter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &ResponseFormatter{prefix: prefix}
}

type helpTemplateData struct {
	Prefix        string
	Aliases       []string
	MinSimilarity string
}

// FormatHelp renders the command help including the active threshold.
func (f *ResponseFormatter) FormatHelp(minSimilarity float64) string {
	aliases := make([]string, 0, len(constants.CommandAliases.Trace))
	for _, alias := range constants.CommandAliases.Trace {
		if alias != constants.CommandAliases.Trace[0] {
			aliases = append(aliases, alias)
		}
	}

	message, err := executeFormatterTemplate("help", helpTemplateData{
		Prefix:        f.prefix,
		Aliases:       aliases,
		MinSimilarity: util.FormatNumber(minSimilarity),
	})
	if err != nil {
		return fmt.Sprintf("%s%s + 이미지: 애니메이션 장면 검색", f.prefix, constants.CommandAliases.Trace[0])
	}
	return message
}

// FormatRecognitionError maps a terminal search outcome to the user message.
// Anything that is not a recognition outcome is reported as a generic failure.
func (f *ResponseFormatter) FormatRecognitionError(err error) string {
	recErr, ok := errors.AsRecognitionError(err)
	if !ok {
		return constants.Messages.Failed
	}

	switch recErr.Kind {
	case errors.KindNoImageAttached:
		return constants.Messages.NoImage
	case errors.KindNoMatchFound:
		return constants.Messages.NoResult
	case errors.KindBelowThreshold:
		return fmt.Sprintf(constants.Messages.BelowThreshold,
			util.FormatNumber(recErr.Similarity),
			util.FormatNumber(recErr.Threshold))
	default:
		return constants.Messages.Failed
	}
}

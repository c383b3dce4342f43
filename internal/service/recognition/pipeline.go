package recognition

import (
	"context"

	"github.com/google/uuid"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/config"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// Searcher issues the reverse image lookup.
type Searcher interface {
	Search(ctx context.Context, req domain.RecognitionRequest) (domain.RankedResults, error)
}

// Messenger sends and retracts the "working" notice.
type Messenger interface {
	SendQuote(ctx context.Context, room, replyTo, text string) (string, error)
	DeleteMessage(ctx context.Context, room, messageID string) error
}

// Options are the read-only search and display settings.
type Options struct {
	APIKey           string
	MinSimilarity    float64
	CutBorders       bool
	ShowRomajiTitle  bool
	SendCoverImage   bool
	SendScenePreview bool
	UseForward       bool
	LogDetails       bool
}

func OptionsFromConfig(cfg config.TraceMoeConfig) Options {
	return Options{
		APIKey:           cfg.APIKey,
		MinSimilarity:    cfg.MinSimilarity,
		CutBorders:       cfg.CutBorders,
		ShowRomajiTitle:  cfg.ShowRomajiTitle,
		SendCoverImage:   cfg.SendCoverImage,
		SendScenePreview: cfg.SendScenePreview,
		UseForward:       cfg.UseForward,
		LogDetails:       cfg.LogDetails,
	}
}

// Result is a successful recognition.
type Result struct {
	Reply      *domain.Reply
	Match      domain.CandidateMatch
	Similarity float64
}

// Pipeline runs one scene search per call. It holds no per-invocation state,
// so a single Pipeline serves concurrent invocations.
type Pipeline struct {
	searcher  Searcher
	messenger Messenger
	opts      Options
	logger    *zap.Logger
}

func NewPipeline(searcher Searcher, messenger Messenger, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		searcher:  searcher,
		messenger: messenger,
		opts:      opts,
		logger:    logger,
	}
}

func (p *Pipeline) Options() Options {
	return p.opts
}

// Run extracts the image, looks it up, gates the best match and composes the
// reply. Terminal outcomes are returned as *errors.RecognitionError. Once an
// image is found a placeholder notice is sent, and it is deleted before Run
// returns on every path.
func (p *Pipeline) Run(ctx context.Context, cmdCtx *domain.CommandContext) (*Result, error) {
	imageURL, ok := ExtractImageURL(cmdCtx.Elements)
	if !ok {
		return nil, errors.NewRecognitionError(errors.KindNoImageAttached, "no image attached", nil)
	}

	log := p.logger.With(
		zap.String("invocation_id", uuid.NewString()),
		zap.String("room", cmdCtx.Room),
	)
	p.detail(log, "[1/6] Scene search requested", zap.String("image_url", imageURL))

	handle := p.sendPlaceholder(ctx, cmdCtx, log)
	defer p.retractPlaceholder(ctx, cmdCtx.Room, handle, log)

	req := domain.RecognitionRequest{
		ImageURL:   imageURL,
		CutBorders: p.opts.CutBorders,
		APIKey:     p.opts.APIKey,
	}
	p.detail(log, "[2/6] Querying trace.moe",
		zap.Bool("cut_borders", req.CutBorders),
		zap.Bool("api_key", req.APIKey != ""),
	)

	results, err := p.searcher.Search(ctx, req)
	if err != nil {
		return nil, errors.NewRecognitionError(errors.KindProviderUnavailable, "trace.moe lookup failed", err)
	}
	p.detail(log, "[3/6] trace.moe responded", zap.Int("results", len(results)))

	match, similarity, err := SelectTop(results, p.opts.MinSimilarity)
	p.detail(log, "[4/6] Best match evaluated",
		zap.Float64("similarity", similarity),
		zap.Float64("threshold", p.opts.MinSimilarity),
	)
	if err != nil {
		return nil, err
	}

	reply := Compose(match, similarity, p.opts, cmdCtx.Platform)
	p.detail(log, "[5/6] Reply composed",
		zap.String("mode", string(reply.Mode)),
		zap.Int("segments", len(reply.Segments)),
		zap.Bool("adult", match.IsAdult),
	)

	return &Result{Reply: reply, Match: match, Similarity: similarity}, nil
}

func (p *Pipeline) sendPlaceholder(ctx context.Context, cmdCtx *domain.CommandContext, log *zap.Logger) string {
	handle, err := p.messenger.SendQuote(ctx, cmdCtx.Room, cmdCtx.MessageID, constants.Messages.Placeholder)
	if err != nil {
		log.Warn("Failed to send placeholder notice", zap.Error(err))
		return ""
	}
	return handle
}

// retractPlaceholder runs deferred, so it must not depend on ctx still being
// live and must never surface its own error.
func (p *Pipeline) retractPlaceholder(ctx context.Context, room, handle string, log *zap.Logger) {
	if handle == "" {
		return
	}
	p.detail(log, "[6/6] Deleting placeholder notice", zap.String("message_id", handle))
	if err := p.messenger.DeleteMessage(context.WithoutCancel(ctx), room, handle); err != nil {
		log.Debug("Placeholder delete failed", zap.String("message_id", handle), zap.Error(err))
	}
}

func (p *Pipeline) detail(log *zap.Logger, msg string, fields ...zap.Field) {
	if p.opts.LogDetails {
		log.Info(msg, fields...)
	}
}

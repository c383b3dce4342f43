package recognition

import (
	"fmt"
	"strings"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
)

// Compose builds the reply for an accepted match. It performs no I/O.
func Compose(match domain.CandidateMatch, similarity float64, opts Options, platform string) *domain.Reply {
	segments := make([]domain.Segment, 0, 4)

	segments = append(segments, domain.TextSegment(constants.Messages.ResultHeader))

	if opts.SendCoverImage && match.CoverImageURL != "" {
		segments = append(segments, domain.ImageSegment(match.CoverImageURL))
	}

	segments = append(segments, domain.TextSegment(MetadataText(match, similarity, opts.ShowRomajiTitle)))

	if opts.SendScenePreview {
		segments = append(segments, previewSegment(match))
	}

	return &domain.Reply{
		Segments: segments,
		Mode:     GroupingFor(opts.UseForward, platform),
	}
}

// MetadataText renders the title/genre/date/episode/time/similarity block.
func MetadataText(match domain.CandidateMatch, similarity float64, showRomaji bool) string {
	lines := make([]string, 0, 6)

	title := match.Title.Display()
	if showRomaji && match.Title.Romaji != "" && match.Title.Romaji != title {
		title += "\n" + match.Title.Romaji
	}
	lines = append(lines, "🎬 작품명:\n"+title)

	if len(match.Genres) > 0 {
		lines = append(lines, "🎭 장르: "+strings.Join(match.Genres, " / "))
	}

	if match.AirDate != nil && match.AirDate.Year > 0 {
		lines = append(lines, "🗓️ 방영 시작: "+util.FormatDate(match.AirDate.Year, match.AirDate.Month, match.AirDate.Day))
	}

	episode := match.Episode
	if episode == "" {
		episode = constants.Messages.UnknownEpisode
	}
	lines = append(lines, "🎞️ 에피소드: "+episode)
	lines = append(lines, "⏱️ 장면 시간: "+util.FormatSceneTime(match.SceneStartSeconds))
	lines = append(lines, fmt.Sprintf("📈 유사도: %s%%", util.FormatNumber(similarity)))

	return strings.Join(lines, "\n")
}

// GroupingFor picks forward bundles only on the platform that renders them.
func GroupingFor(useForward bool, platform string) domain.Grouping {
	if useForward && platform == constants.ForwardPlatform {
		return domain.GroupingForwarded
	}
	return domain.GroupingFlat
}

func previewSegment(match domain.CandidateMatch) domain.Segment {
	if match.PreviewVideoURL != "" {
		return domain.VideoSegment(match.PreviewVideoURL)
	}
	return domain.ImageSegment(match.PreviewImageURL)
}

package recognition

import (
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
)

// ExtractImageURL returns the source of the first image element in document
// order. Later images are ignored.
func ExtractImageURL(elements []domain.Element) (string, bool) {
	sources := domain.SelectSources(elements, domain.ElementImage)
	if len(sources) == 0 {
		return "", false
	}
	return sources[0], true
}

// SelectTop takes the provider's first result and gates it on minSimilarity.
// The similarity is rounded to two decimals before the comparison so the
// value shown to the user is the value that was compared.
func SelectTop(results domain.RankedResults, minSimilarity float64) (domain.CandidateMatch, float64, error) {
	if len(results) == 0 {
		return domain.CandidateMatch{}, 0, errors.NewRecognitionError(errors.KindNoMatchFound, "no match found", nil)
	}

	top := results[0]
	similarity := util.Percent(top.Similarity)
	if similarity < minSimilarity {
		return domain.CandidateMatch{}, similarity, errors.NewBelowThresholdError(similarity, minSimilarity)
	}

	return top, similarity, nil
}

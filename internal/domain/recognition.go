package domain

// RecognitionRequest is the provider query for one invocation. An empty
// APIKey means no key is sent.
type RecognitionRequest struct {
	ImageURL   string
	CutBorders bool
	APIKey     string
}

type Title struct {
	Native  string
	Romaji  string
	English string
}

// Display returns the native title, falling back to romaji then english.
func (t Title) Display() string {
	switch {
	case t.Native != "":
		return t.Native
	case t.Romaji != "":
		return t.Romaji
	default:
		return t.English
	}
}

type AirDate struct {
	Year  int
	Month int
	Day   int
}

// CandidateMatch is one ranked provider result.
type CandidateMatch struct {
	Title             Title
	Episode           string // empty when the provider has no episode
	SceneStartSeconds float64
	Similarity        float64 // 0..1
	PreviewImageURL   string
	PreviewVideoURL   string
	Genres            []string
	IsAdult           bool
	CoverImageURL     string
	AirDate           *AirDate
}

// RankedResults keeps provider order; index 0 is the best match.
type RankedResults []CandidateMatch

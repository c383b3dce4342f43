package tracemoe

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
)

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	FrameCount int      `json:"frameCount"`
	Error      string   `json:"error"`
	Result     []Result `json:"result"`
}

type Result struct {
	Anilist    Anilist `json:"anilist"`
	Filename   string  `json:"filename"`
	Episode    Episode `json:"episode"`
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	Similarity float64 `json:"similarity"`
	Video      string  `json:"video"`
	Image      string  `json:"image"`
}

type Anilist struct {
	ID         int        `json:"id"`
	IDMal      int        `json:"idMal"`
	Title      Title      `json:"title"`
	Synonyms   []string   `json:"synonyms"`
	IsAdult    bool       `json:"isAdult"`
	Genres     []string   `json:"genres"`
	CoverImage *Cover     `json:"coverImage"`
	StartDate  *FuzzyDate `json:"startDate"`
}

type anilistAlias Anilist

// UnmarshalJSON accepts both the bare anilist id returned without
// anilistInfo and the full object.
func (a *Anilist) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Anilist{}
		return nil
	}
	if trimmed[0] != '{' {
		var id int
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*a = Anilist{ID: id}
		return nil
	}
	var alias anilistAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return err
	}
	*a = Anilist(alias)
	return nil
}

type Title struct {
	Native  string `json:"native"`
	Romaji  string `json:"romaji"`
	English string `json:"english"`
}

type Cover struct {
	ExtraLarge string `json:"extraLarge"`
	Large      string `json:"large"`
	Medium     string `json:"medium"`
}

// FuzzyDate fields are null when AniList does not know them.
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// Episode holds the provider episode as display text. trace.moe sends a
// number, a string, a list of numbers or null.
type Episode string

func (e *Episode) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = ""
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*e = Episode(strings.TrimSpace(s))
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			var ep Episode
			if err := ep.UnmarshalJSON(item); err != nil {
				return err
			}
			if ep != "" {
				parts = append(parts, string(ep))
			}
		}
		*e = Episode(strings.Join(parts, ","))
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		if n == 0 {
			*e = ""
			return nil
		}
		*e = Episode(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

// Quota is the body of GET /me.
type Quota struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Concurrency int    `json:"concurrency"`
	Quota       int    `json:"quota"`
	QuotaUsed   int    `json:"quotaUsed"`
}

// ToCandidate converts a wire result into the domain model.
func (r Result) ToCandidate() domain.CandidateMatch {
	match := domain.CandidateMatch{
		Title: domain.Title{
			Native:  r.Anilist.Title.Native,
			Romaji:  r.Anilist.Title.Romaji,
			English: r.Anilist.Title.English,
		},
		Episode:           string(r.Episode),
		SceneStartSeconds: r.From,
		Similarity:        r.Similarity,
		PreviewImageURL:   r.Image,
		PreviewVideoURL:   r.Video,
		Genres:            r.Anilist.Genres,
		IsAdult:           r.Anilist.IsAdult,
	}

	if cover := r.Anilist.CoverImage; cover != nil {
		match.CoverImageURL = cover.Large
		if match.CoverImageURL == "" {
			match.CoverImageURL = cover.Medium
		}
	}

	if date := r.Anilist.StartDate; date != nil && date.Year != nil && *date.Year > 0 {
		match.AirDate = &domain.AirDate{
			Year:  *date.Year,
			Month: derefInt(date.Month),
			Day:   derefInt(date.Day),
		}
	}

	return match
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

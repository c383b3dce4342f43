package domain

type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentImage SegmentKind = "image"
	SegmentVideo SegmentKind = "video"
)

// Segment is one part of a reply. Text is set for SegmentText, URL for media.
type Segment struct {
	Kind SegmentKind
	Text string
	URL  string
}

func TextSegment(text string) Segment {
	return Segment{Kind: SegmentText, Text: text}
}

func ImageSegment(url string) Segment {
	return Segment{Kind: SegmentImage, URL: url}
}

func VideoSegment(url string) Segment {
	return Segment{Kind: SegmentVideo, URL: url}
}

type Grouping string

const (
	GroupingFlat      Grouping = "flat"
	GroupingForwarded Grouping = "forwarded"
)

// Reply is an ordered list of segments plus how they should be delivered.
type Reply struct {
	Segments []Segment
	Mode     Grouping
}

// Count returns how many segments of the given kind the reply holds.
func (r *Reply) Count(kind SegmentKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, seg := range r.Segments {
		if seg.Kind == kind {
			n++
		}
	}
	return n
}

package domain

// ElementType tags one node of an inbound message.
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "img"
	ElementVideo ElementType = "video"
)

// Element is one node of an inbound message in document order. Src is set
// for media elements, Text for text nodes.
type Element struct {
	Type ElementType
	Src  string
	Text string
}

func TextElement(text string) Element {
	return Element{Type: ElementText, Text: text}
}

func ImageElement(src string) Element {
	return Element{Type: ElementImage, Src: src}
}

func VideoElement(src string) Element {
	return Element{Type: ElementVideo, Src: src}
}

// SelectSources returns the Src of every element of type t in document order.
func SelectSources(elements []Element, t ElementType) []string {
	var sources []string
	for _, el := range elements {
		if el.Type == t && el.Src != "" {
			sources = append(sources, el.Src)
		}
	}
	return sources
}

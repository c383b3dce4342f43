package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/iris"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"github.com/tidwall/gjson"
)

// MessageAdapter converts KakaoTalk messages to bot commands
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter creates a new MessageAdapter
func NewMessageAdapter(prefix string) *MessageAdapter {
	return &MessageAdapter{prefix: prefix}
}

// ParsedCommand represents a parsed command
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
	Elements   []domain.Element
}

// ParseMessage parses a KakaoTalk message into a command. Media elements are
// collected for every message so commands can inspect attachments.
func (ma *MessageAdapter) ParseMessage(message *iris.Message) *ParsedCommand {
	if message == nil {
		return ma.createUnknownCommand("", nil)
	}

	elements := ma.Elements(message)
	text := strings.TrimSpace(plainText(elements))
	if text == "" {
		text = strings.TrimSpace(message.Msg)
	}

	if !strings.HasPrefix(text, ma.prefix) {
		return ma.createUnknownCommand(text, elements)
	}

	parts := strings.Fields(strings.TrimSpace(text[len(ma.prefix):]))
	if len(parts) == 0 {
		return ma.createUnknownCommand(text, elements)
	}

	command := util.Normalize(parts[0])

	switch {
	case util.Contains(constants.CommandAliases.Trace, command):
		return &ParsedCommand{
			Type:       domain.CommandTrace,
			Params:     make(map[string]any),
			RawMessage: text,
			Elements:   elements,
		}
	case util.Contains(constants.CommandAliases.Help, command):
		return &ParsedCommand{
			Type:       domain.CommandHelp,
			Params:     make(map[string]any),
			RawMessage: text,
			Elements:   elements,
		}
	}

	return ma.createUnknownCommand(text, elements)
}

// Elements flattens the message into document order: nodes of the message
// markup first, then the KakaoTalk attachment media.
func (ma *MessageAdapter) Elements(message *iris.Message) []domain.Element {
	if message == nil {
		return nil
	}

	elements := parseMarkup(message.Msg)
	if message.JSON != nil {
		elements = append(elements, parseAttachment(message.JSON.Type, message.JSON.Attachment)...)
	}
	return elements
}

// parseMarkup reads inline <img>/<video> tags the bridge embeds in the text.
func parseMarkup(text string) []domain.Element {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return []domain.Element{domain.TextElement(text)}
	}

	var elements []domain.Element
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			switch goquery.NodeName(node) {
			case "#text":
				if t := node.Text(); strings.TrimSpace(t) != "" {
					elements = append(elements, domain.TextElement(t))
				}
			case "img":
				if src, ok := node.Attr("src"); ok && src != "" {
					elements = append(elements, domain.ImageElement(src))
				}
			case "video":
				if src, ok := node.Attr("src"); ok && src != "" {
					elements = append(elements, domain.VideoElement(src))
				}
			default:
				walk(node)
			}
		})
	}
	walk(doc.Find("body"))

	return elements
}

func parseAttachment(chatType, attachment string) []domain.Element {
	if attachment == "" || !gjson.Valid(attachment) {
		return nil
	}

	switch chatType {
	case iris.ChatTypePhoto:
		if url := gjson.Get(attachment, "url").String(); url != "" {
			return []domain.Element{domain.ImageElement(url)}
		}
	case iris.ChatTypeMultiPhoto:
		var elements []domain.Element
		for _, url := range gjson.Get(attachment, "imageUrls").Array() {
			if url.String() != "" {
				elements = append(elements, domain.ImageElement(url.String()))
			}
		}
		return elements
	case iris.ChatTypeVideo:
		if url := gjson.Get(attachment, "url").String(); url != "" {
			return []domain.Element{domain.VideoElement(url)}
		}
	}
	return nil
}

func plainText(elements []domain.Element) string {
	var sb strings.Builder
	for _, el := range elements {
		if el.Type == domain.ElementText {
			sb.WriteString(el.Text)
		}
	}
	return sb.String()
}

func (ma *MessageAdapter) createUnknownCommand(text string, elements []domain.Element) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     make(map[string]any),
		RawMessage: text,
		Elements:   elements,
	}
}

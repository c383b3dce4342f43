package iris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.APIConfig.IrisTimeout,
		},
		logger: logger,
	}
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var config Config
	if err := c.doRequest(ctx, http.MethodGet, "/config", nil, &config); err != nil {
		c.logger.Error("Failed to get Iris config", zap.Error(err))
		return nil, err
	}
	return &config, nil
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	_, err := c.sendText(ctx, room, "", message)
	return err
}

// SendQuote sends text quoting replyTo and returns the id of the new message.
func (c *Client) SendQuote(ctx context.Context, room, replyTo, message string) (string, error) {
	ids, err := c.sendText(ctx, room, replyTo, message)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// SendReply delivers a composed reply as one composite message, or as a
// forward bundle when the reply asks for it.
func (c *Client) SendReply(ctx context.Context, room string, reply *domain.Reply) error {
	if reply == nil || len(reply.Segments) == 0 {
		return nil
	}

	replyType := ReplyTypeMessage
	if reply.Mode == domain.GroupingForwarded {
		replyType = ReplyTypeForward
	}

	req := ReplyRequest{
		Type: replyType,
		Room: room,
		Data: toReplySegments(reply.Segments),
	}

	if err := c.doRequest(ctx, http.MethodPost, "/reply", req, nil); err != nil {
		c.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.String("room", room),
			zap.String("type", replyType),
		)
		return err
	}
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, room, messageID string) error {
	req := DeleteRequest{Room: room, MessageID: messageID}
	return c.doRequest(ctx, http.MethodPost, "/delete", req, nil)
}

func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.GetConfig(ctx)
	return err == nil
}

func (c *Client) sendText(ctx context.Context, room, replyTo, message string) ([]string, error) {
	req := ReplyRequest{
		Type:    ReplyTypeText,
		Room:    room,
		Data:    message,
		ReplyTo: replyTo,
	}

	var resp ReplyResponse
	if err := c.doRequest(ctx, http.MethodPost, "/reply", req, &resp); err != nil {
		c.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("room", room),
		)
		return nil, err
	}
	return resp.MessageIDs, nil
}

func toReplySegments(segments []domain.Segment) []ReplySegment {
	out := make([]ReplySegment, 0, len(segments))
	for _, seg := range segments {
		switch seg.Kind {
		case domain.SegmentText:
			out = append(out, ReplySegment{Type: "text", Text: seg.Text})
		case domain.SegmentImage:
			out = append(out, ReplySegment{Type: "image", URL: seg.URL})
		case domain.SegmentVideo:
			out = append(out, ReplySegment{Type: "video", URL: seg.URL})
		}
	}
	return out
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, int64(constants.APIConfig.MaxErrorBody)))
		return errors.NewAPIError(
			fmt.Sprintf("Iris API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"url":  url,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.NewAPIError("failed to read response", 500, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		// older Iris builds answer /reply with an empty body
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}

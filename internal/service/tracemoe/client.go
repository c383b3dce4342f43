package tracemoe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kapu/tracemoe-kakao-bot-go/internal/constants"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/domain"
	"github.com/kapu/tracemoe-kakao-bot-go/internal/util"
	"github.com/kapu/tracemoe-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// Client talks to the trace.moe HTTP API. It keeps no per-request state and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = constants.APIConfig.TraceMoeBaseURL
	}
	if timeout <= 0 {
		timeout = constants.APIConfig.TraceMoeTimeout
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP lets callers supply their own transport.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// SearchURL builds the search endpoint for req. anilistInfo is always
// requested; cutBorders is a bare flag present only when enabled.
func (c *Client) SearchURL(req domain.RecognitionRequest) (string, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return "", errors.NewValidationError("image url is required", "url", req.ImageURL)
	}

	query := url.Values{}
	query.Set("url", req.ImageURL)
	rawQuery := query.Encode() + "&anilistInfo"
	if req.CutBorders {
		rawQuery += "&cutBorders"
	}
	return c.baseURL + "/search?" + rawQuery, nil
}

// Search performs exactly one GET /search. Failures are not retried.
func (c *Client) Search(ctx context.Context, req domain.RecognitionRequest) (domain.RankedResults, error) {
	searchURL, err := c.SearchURL(req)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := c.doRequest(ctx, searchURL, req.APIKey, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, errors.NewAPIError(fmt.Sprintf("trace.moe error: %s", resp.Error), http.StatusBadGateway, map[string]any{
			"url": searchURL,
		})
	}

	results := make(domain.RankedResults, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, r.ToCandidate())
	}
	return results, nil
}

// Me returns the quota attached to apiKey, or to the caller IP when empty.
func (c *Client) Me(ctx context.Context, apiKey string) (*Quota, error) {
	var quota Quota
	if err := c.doRequest(ctx, c.baseURL+"/me", apiKey, &quota); err != nil {
		c.logger.Warn("Failed to get trace.moe quota", zap.Error(err))
		return nil, err
	}
	return &quota, nil
}

func (c *Client) doRequest(ctx context.Context, reqURL, apiKey string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-trace-key", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 503, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, int64(constants.APIConfig.MaxErrorBody)))
		return errors.NewAPIError(
			fmt.Sprintf("trace.moe API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"url":  reqURL,
				"body": util.TruncateString(string(bodyBytes), constants.APIConfig.MaxErrorBody),
			},
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return errors.NewAPIError("failed to decode response", 502, map[string]any{
			"url": reqURL,
		}).WithCause(err)
	}

	return nil
}

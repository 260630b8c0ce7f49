package answering

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

// maxResponseSize caps how much of a reply body is read.
const maxResponseSize = 1 << 20

// GenerateRequest is the body posted to the answering service.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// GenerateResponse is the body the answering service replies with. Response
// is optional and normally a string.
type GenerateResponse struct {
	Response json.RawMessage `json:"response"`
}

// HTTPAnswerer posts prompts to a text-generation endpoint. It never
// retries; the transport's own timeout is the only deadline besides ctx.
type HTTPAnswerer struct {
	url        string
	httpClient *http.Client
}

func NewHTTPAnswerer(url string, timeout time.Duration) *HTTPAnswerer {
	return &HTTPAnswerer{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the underlying client, mostly for tests.
func (a *HTTPAnswerer) WithHTTPClient(c *http.Client) *HTTPAnswerer {
	a.httpClient = c
	return a
}

// Answer implements domain.Answerer. The status code is not inspected: the
// body alone decides between a reply, a missing reply (empty string) and a
// failure.
func (a *HTTPAnswerer) Answer(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody, err := json.Marshal(GenerateRequest{Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", domain.ErrReplyUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", domain.ErrReplyUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %w", domain.ErrReplyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithCtx(ctx).Warn("Answering service returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", a.url))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrReplyUnavailable, err)
	}

	return decodeReply(body, resp.StatusCode)
}

// decodeReply extracts the reply text. Bodies that are not JSON, and a bare
// null, are failures. Any other JSON without a usable response field yields
// "", the missing-reply case. A numeric response is shown as written.
func decodeReply(body []byte, status int) (string, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return "", fmt.Errorf("%w: decode response (status %d): invalid JSON", domain.ErrReplyUnavailable, status)
	}
	if bytes.Equal(body, []byte("null")) {
		return "", fmt.Errorf("%w: decode response (status %d): null body", domain.ErrReplyUnavailable, status)
	}
	if body[0] != '{' {
		return "", nil
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response (status %d): %w", domain.ErrReplyUnavailable, status, err)
	}

	raw := bytes.TrimSpace(out.Response)
	if len(raw) == 0 {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", fmt.Errorf("%w: decode response text: %w", domain.ErrReplyUnavailable, err)
		}
		return text, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil || n == 0 {
			return "", nil
		}
		return string(raw), nil
	default:
		return "", nil
	}
}

package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	platformerrors "github.com/riftholm/riftholm/internal/platform/errors"
	"github.com/riftholm/riftholm/internal/platform/timeouts"
)

const traceHeader = "X-Riftholm-Trace"

// OpenAIConfig configures the OpenAI-compatible responses endpoint.
type OpenAIConfig struct {
	ResponsesURL string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
}

type openAIGenerator struct {
	cfg OpenAIConfig
}

// NewOpenAIGenerator builds a generator against an OpenAI-compatible
// responses endpoint.
func NewOpenAIGenerator(cfg OpenAIConfig) (Generator, error) {
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: timeouts.ModelRequest}
	}
	return &openAIGenerator{cfg: cfg}, nil
}

func (g *openAIGenerator) Generate(ctx context.Context, genReq GenerateRequest) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model":        g.cfg.Model,
		"instructions": genReq.SystemInstructions,
		"input":        genReq.UserPrompt,
	})
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.CodeModelClient, "marshal generate request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", platformerrors.Wrap(platformerrors.CodeModelClient, "build generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and
	// is never echoed in errors or logs.
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	if genReq.TraceID != "" {
		req.Header.Set(traceHeader, genReq.TraceID)
	}

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", classifyStatus(res)
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", platformerrors.Wrap(platformerrors.CodeModelInvalidResponse, "decode generate response", err)
	}

	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if content.Type == "output_text" && strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
		}
	}
	if outputText == "" {
		return "", platformerrors.New(platformerrors.CodeModelInvalidResponse, "model returned empty output")
	}
	return outputText, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return platformerrors.Wrap(platformerrors.CodeModelTimeout, "model request timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return platformerrors.Wrap(platformerrors.CodeModelTimeout, "model request timed out", err)
	}
	return platformerrors.Wrap(platformerrors.CodeModelClient, "model request failed", err)
}

func classifyStatus(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	message := fmt.Sprintf("model status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return platformerrors.New(platformerrors.CodeModelConfiguration, message)
	case res.StatusCode == http.StatusRequestTimeout:
		return platformerrors.New(platformerrors.CodeModelTimeout, message)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return platformerrors.New(platformerrors.CodeModelInvalidResponse, message)
	default:
		return platformerrors.New(platformerrors.CodeModelClient, message)
	}
}

// IsRetryable classifies model errors for the retry policy: timeouts,
// throttling, and upstream 5xx responses retry; auth and other client
// failures are terminal.
func IsRetryable(err error) bool {
	switch platformerrors.CodeOf(err) {
	case platformerrors.CodeModelTimeout, platformerrors.CodeModelInvalidResponse:
		return true
	}
	return false
}

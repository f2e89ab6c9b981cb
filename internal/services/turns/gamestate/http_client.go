package gamestate

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

// traceHeader carries the turn's trace ID to the game-state service.
const traceHeader = "X-Riftholm-Trace"

// HTTPClient talks to the game-state service over its JSON HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient builds a client for the game-state service at baseURL.
func NewHTTPClient(baseURL string, httpClient *http.Client) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("game-state base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.GameStateRequest}
	}
	return &HTTPClient{baseURL: baseURL, httpClient: httpClient}, nil
}

// GetContext fetches the character's turn context.
func (c *HTTPClient) GetContext(ctx context.Context, characterID, traceID string) (*TurnContext, error) {
	var turnCtx TurnContext
	path := fmt.Sprintf("/v1/characters/%s/context", url.PathEscape(characterID))
	if err := c.do(ctx, http.MethodGet, path, traceID, nil, &turnCtx); err != nil {
		return nil, err
	}
	return &turnCtx, nil
}

// PersistNarrative appends one turn narrative to the character's log.
func (c *HTTPClient) PersistNarrative(ctx context.Context, characterID string, entry NarrativeEntry) error {
	path := fmt.Sprintf("/v1/characters/%s/narrative", url.PathEscape(characterID))
	return c.do(ctx, http.MethodPost, path, "", entry, nil)
}

// PutQuest stores the character's quest.
func (c *HTTPClient) PutQuest(ctx context.Context, characterID string, quest Quest) error {
	path := fmt.Sprintf("/v1/characters/%s/quest", url.PathEscape(characterID))
	return c.do(ctx, http.MethodPut, path, "", quest, nil)
}

// DeleteQuest removes the character's quest.
func (c *HTTPClient) DeleteQuest(ctx context.Context, characterID, questID string) error {
	path := fmt.Sprintf("/v1/characters/%s/quest/%s", url.PathEscape(characterID), url.PathEscape(questID))
	return c.do(ctx, http.MethodDelete, path, "", nil, nil)
}

// PutCombat stores the character's combat state.
func (c *HTTPClient) PutCombat(ctx context.Context, characterID string, combat CombatState) error {
	path := fmt.Sprintf("/v1/characters/%s/combat", url.PathEscape(characterID))
	return c.do(ctx, http.MethodPut, path, "", combat, nil)
}

// PostPoi records a new point of interest.
func (c *HTTPClient) PostPoi(ctx context.Context, characterID string, poi Poi) error {
	path := fmt.Sprintf("/v1/characters/%s/pois", url.PathEscape(characterID))
	return c.do(ctx, http.MethodPost, path, "", poi, nil)
}

// GetRandomPois samples previously recorded POIs for prompt enrichment.
func (c *HTTPClient) GetRandomPois(ctx context.Context, characterID string, limit int) ([]Poi, error) {
	var pois []Poi
	path := fmt.Sprintf("/v1/characters/%s/pois/random?limit=%d", url.PathEscape(characterID), limit)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &pois); err != nil {
		return nil, err
	}
	return pois, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, traceID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return platformerrors.Wrap(platformerrors.CodeUpstreamClient, "encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return platformerrors.Wrap(platformerrors.CodeUpstreamClient, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID != "" {
		req.Header.Set(traceHeader, traceID)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return classifyStatus(res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return platformerrors.Wrap(platformerrors.CodeUpstreamClient, "decode response body", err)
	}
	return nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return platformerrors.Wrap(platformerrors.CodeUpstreamTimeout, "game-state request timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return platformerrors.Wrap(platformerrors.CodeUpstreamTimeout, "game-state request timed out", err)
	}
	// Connection-level failures are treated as a retryable outage.
	return platformerrors.Wrap(platformerrors.CodeUpstreamUnavailable, "game-state request failed", err)
}

func classifyStatus(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	message := fmt.Sprintf("game-state status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case res.StatusCode == http.StatusNotFound:
		return platformerrors.New(platformerrors.CodeCharacterNotFound, message)
	case res.StatusCode == http.StatusRequestTimeout:
		return platformerrors.New(platformerrors.CodeUpstreamTimeout, message)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return platformerrors.New(platformerrors.CodeUpstreamUnavailable, message)
	default:
		return platformerrors.New(platformerrors.CodeUpstreamClient, message)
	}
}

// IsRetryable classifies game-state errors for the retry policy:
// timeouts and outages retry, everything else is terminal.
func IsRetryable(err error) bool {
	switch platformerrors.CodeOf(err) {
	case platformerrors.CodeUpstreamTimeout, platformerrors.CodeUpstreamUnavailable:
		return true
	}
	return false
}

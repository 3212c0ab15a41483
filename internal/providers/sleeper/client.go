package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/providers"
)

// Config controls how the Sleeper client reaches the upstream API.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client fetches the full player dictionary from the Sleeper API.
type Client struct {
	baseURL    string
	httpClient httpDoer
	now        func() time.Time
}

// NewClient constructs a Sleeper client with the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: resolveHTTPClient(cfg.HTTPClient, cfg.Timeout),
		now:        time.Now,
	}
}

// FetchPlayers retrieves GET {base}/players/{sport} and maps it to the domain dictionary.
func (c *Client) FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error) {
	req, err := c.buildRequest(ctx, normalizeSport(sport))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request players: %w", providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Remaining:  resp.Header.Get("X-RateLimit-Remaining"),
			Message:    providerName + " rate limited",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var payload playersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: decode players: %w", providerName, err)
	}
	return mapPlayers(payload), nil
}

func (c *Client) buildRequest(ctx context.Context, sport string) (*http.Request, error) {
	endpoint := c.baseURL + "/players/" + url.PathEscape(sport)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

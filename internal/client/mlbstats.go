package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mlbdata/pipeline/internal/metrics"
	"mlbdata/pipeline/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Client is the MLB Stats API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new MLB Stats API client. rps and burst bound the
// request rate against the public API.
func NewClient(baseURL string, timeout time.Duration, rps, burst int) *Client {
	return &Client{
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request against the Stats API with retry logic and rate
// limiting
func (c *Client) get(ctx context.Context, endpoint, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	start := time.Now()
	body, err := c.doGet(ctx, url, params)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordAPICall(endpoint, status, time.Since(start).Seconds())

	return body, err
}

func (c *Client) doGet(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "mlb-data-pipeline/1.0")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", url).
			Int("attempt", attempt+1).
			Msg("Making API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("API request failed: %w", err)
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		case http.StatusNotFound:
			return nil, fmt.Errorf("API returned status 404 for %s", url)

		default:
			// Other errors - don't retry
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, lastErr
}

// FetchBoxscore fetches the raw boxscore document for a game
func (c *Client) FetchBoxscore(ctx context.Context, gamePk int) ([]byte, error) {
	path := fmt.Sprintf("game/%d/boxscore", gamePk)
	body, err := c.get(ctx, "boxscore", path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boxscore: %w", err)
	}
	return body, nil
}

// FetchLinescore fetches the raw linescore document for a game
func (c *Client) FetchLinescore(ctx context.Context, gamePk int) ([]byte, error) {
	path := fmt.Sprintf("game/%d/linescore", gamePk)
	body, err := c.get(ctx, "linescore", path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linescore: %w", err)
	}
	return body, nil
}

// FetchSchedule fetches the schedule for a date range (inclusive, YYYY-MM-DD)
func (c *Client) FetchSchedule(ctx context.Context, startDate, endDate string) (*models.ScheduleResponse, error) {
	params := map[string]string{
		"sportId":   "1",
		"startDate": startDate,
		"endDate":   endDate,
	}
	body, err := c.get(ctx, "schedule", "schedule", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	var schedule models.ScheduleResponse
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	return &schedule, nil
}

// FetchGameSchedule fetches the schedule entry for a single game. The
// endpoint returns the date the game belongs to, including metadata absent
// from boxscore and linescore documents.
func (c *Client) FetchGameSchedule(ctx context.Context, gamePk int) (*models.ScheduleResponse, error) {
	params := map[string]string{
		"sportId": "1",
		"gamePk":  fmt.Sprintf("%d", gamePk),
	}
	body, err := c.get(ctx, "schedule", "schedule", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game schedule: %w", err)
	}

	var schedule models.ScheduleResponse
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game schedule: %w", err)
	}
	return &schedule, nil
}

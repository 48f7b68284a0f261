package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/logging"
)

// fetchSleepFunc is overridden in tests to skip backoff delays
var fetchSleepFunc = time.Sleep

// APIError is an error object returned by MediaWiki in a 200 response
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki error %s: %s", e.Code, e.Info)
}

// getJSON issues a GET against the API and decodes the response into out,
// retrying transient failures with exponential backoff.
func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	params.Set("format", "json")
	reqURL := c.apiURL + "?" + params.Encode()

	var body []byte
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.log.Debug("retrying wiki request",
				logging.Int("attempt", attempt+1),
				logging.Duration("backoff", backoff),
				logging.Error(lastErr),
			)
			fetchSleepFunc(backoff)
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		body, lastErr = c.get(ctx, reqURL)
		if lastErr == nil {
			break
		}
		if !isRetryableFetchError(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	if lastErr != nil {
		return lastErr
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, reqURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// isRetryableFetchError reports whether a failed request is worth repeating:
// 5xx, 429 and connection-level failures are; other statuses and local errors are not.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "unexpected status: ") {
		var code int
		if _, scanErr := fmt.Sscanf(msg, "unexpected status: %d", &code); scanErr != nil {
			return false
		}
		return code == http.StatusTooManyRequests || code >= 500
	}
	return strings.HasPrefix(msg, "fetch: ")
}

// Package fetch downloads hourly tick files from the remote feed and
// archives the raw bytes. All network failure is folded into the slot
// status; nothing past this boundary sees an HTTP error.
package fetch

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"fx-data/internal/model"
)

// Config carries the fetch-related subset of application configuration.
type Config struct {
	BaseURL          string
	UserAgent        string
	RawDir           string        // archive root for fetched payloads
	MaxRetries       int           // transient-failure budget
	RetryDelay       time.Duration // base for exponential backoff
	RateLimitBackoff time.Duration // fixed cooldown on 429, not counted against retries
	HTTPTimeout      time.Duration
}

// Client fetches hourly feed files. It reuses one HTTP connection pool for
// the whole run.
type Client struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger

	// sleep is overridable in tests; defaults to time.Sleep.
	sleep func(time.Duration)
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(cfg Config, log *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: newHTTPClient(cfg.HTTPTimeout),
		log:    log,
		sleep:  time.Sleep,
	}
}

// URL builds the feed address for one hour slot. The feed indexes months
// zero-based (Jan=00) while the domain model is one-based; the conversion
// happens here and nowhere else.
func (c *Client) URL(pair string, year, month, day, hour int) string {
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		c.cfg.BaseURL, pair, year, month-1, day, hour)
}

// RawPath returns the local archive path for a fetched hour (months
// one-based on disk).
func (c *Client) RawPath(pair string, year, month, day, hour int) string {
	return filepath.Join(c.cfg.RawDir, pair,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), fmt.Sprintf("%02d", day),
		fmt.Sprintf("%02dh_ticks.bi5", hour))
}

// FetchHour downloads one hourly feed file.
//
// Outcomes:
//   - StatusFetched: payload returned and archived under RawDir
//   - StatusNoData: 404 or empty body (weekends, holidays)
//   - StatusError: transport failure or bad status after all retries
//
// A 429 sleeps the fixed cooldown and retries without consuming an attempt.
func (c *Client) FetchHour(pair string, year, month, day, hour int) (model.SlotStatus, []byte) {
	url := c.URL(pair, year, month, day, hour)
	label := fmt.Sprintf("%s %d-%02d-%02d %02dh", pair, year, month, day, hour)

	attempt := 1
	for attempt <= c.cfg.MaxRetries {
		data, retryable, err := c.doRequest(url)
		if err == nil {
			if data == nil {
				c.log.Debug("no_data", "slot", label)
				return model.StatusNoData, nil
			}
			if aerr := c.archive(pair, year, month, day, hour, data); aerr != nil {
				c.log.Warn("raw archive write failed", "slot", label, "error", aerr)
			}
			c.log.Debug("fetched", "slot", label, "bytes", len(data))
			return model.StatusFetched, data
		}

		if retryable == retryRateLimited {
			c.log.Warn("rate limited, backing off", "slot", label,
				"backoff", c.cfg.RateLimitBackoff)
			c.sleep(c.cfg.RateLimitBackoff)
			continue // does not consume the attempt
		}

		if attempt < c.cfg.MaxRetries {
			backoff := c.cfg.RetryDelay * (1 << (attempt - 1))
			c.log.Warn("fetch failed, retrying", "slot", label,
				"attempt", attempt, "max", c.cfg.MaxRetries,
				"backoff", backoff, "error", err)
			c.sleep(backoff)
		} else {
			c.log.Error("fetch failed after all attempts", "slot", label,
				"attempts", c.cfg.MaxRetries, "error", err)
		}
		attempt++
	}
	return model.StatusError, nil
}

type retryKind int

const (
	retryNone retryKind = iota
	retryTransient
	retryRateLimited
)

// doRequest performs one GET. Returns (nil, _, nil) for a 404 or empty body.
func (c *Client) doRequest(url string) ([]byte, retryKind, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, retryTransient, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retryTransient, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, retryNone, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, retryRateLimited, fmt.Errorf("rate limited (429)")
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retryTransient, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryTransient, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, retryNone, nil
	}
	return data, retryNone, nil
}

// archive writes the exact bytes received to the raw archive path.
func (c *Client) archive(pair string, year, month, day, hour int, data []byte) error {
	dest := c.RawPath(pair, year, month, day, hour)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

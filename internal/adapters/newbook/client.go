// Package newbook is the hotel roster source adapter.
package newbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"resmatch/internal/adapters/httpx"
	"resmatch/internal/adapters/observability"
	"resmatch/internal/domain"
)

const defaultBase = "https://api.newbook.cloud/rest"

type Client struct {
	base   string
	hc     *http.Client
	user   string
	pass   string
	key    string
	region string
	rl     *rate.Limiter
}

func New(base, user, pass, key, region string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("newbook: API key is required")
	}
	if base == "" {
		base = defaultBase
	}
	if region == "" {
		region = "au"
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   base,
		hc:     &http.Client{Timeout: 20 * time.Second},
		user:   user,
		pass:   pass,
		key:    key,
		region: region,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// envelope is the source's response wrapper. A 200 with success=false still
// carries an application-level error in message.
type envelope struct {
	Success *bool            `json:"success"`
	Message string           `json:"message"`
	Data    []map[string]any `json:"data"`
}

// StayingOn returns every stay record overlapping the given calendar date.
func (c *Client) StayingOn(ctx context.Context, date domain.Date) ([]map[string]any, error) {
	body := map[string]any{
		"period_from": date.String() + " 00:00:00",
		"period_to":   date.String() + " 23:59:59",
		"list_type":   "staying",
		"region":      c.region,
		"api_key":     c.key,
	}
	var env envelope
	if err := c.post(ctx, "bookings_list", body, &env); err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("newbook: %s", env.Message)
		}
		return nil, errors.New("newbook: API returned an error")
	}
	return env.Data, nil
}

// post performs a POST with client-side rate limiting and bounded retries on
// 429/transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < httpx.MaxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+endpoint, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.user, c.pass)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "resmatch/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("newbook", endpoint, 0, time.Since(start))
			lastErr = fmt.Errorf("newbook: request failed: %w", err)
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, httpx.Backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("newbook", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("newbook: %w", domain.ErrUnauthorized)

		case httpx.Retryable(resp.StatusCode):
			wait := httpx.RetryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = httpx.Backoff(i)
			}
			lastErr = fmt.Errorf("newbook: remote %d", resp.StatusCode)
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("newbook: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

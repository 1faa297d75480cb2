// Package resos is the restaurant reservation platform adapter.
package resos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"resmatch/internal/adapters/httpx"
	"resmatch/internal/adapters/observability"
	"resmatch/internal/domain"
)

const (
	defaultBase = "https://api.resos.com/v1"
	pageSize    = 100
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("resos: API key is required")
	}
	if base == "" {
		base = defaultBase
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// BookingsOn pages through every reservation overlapping the given date.
// Pagination is offset-based: keep going while a full page comes back.
func (c *Client) BookingsOn(ctx context.Context, date domain.Date) ([]map[string]any, error) {
	from := date.String() + "T00:00:00"
	to := date.String() + "T23:59:59"

	var all []map[string]any
	for skip := 0; ; skip += pageSize {
		q := url.Values{}
		q.Set("fromDateTime", from)
		q.Set("toDateTime", to)
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("skip", strconv.Itoa(skip))

		var page []map[string]any
		if err := c.do(ctx, http.MethodGet, "bookings", q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) CustomFields(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	return out, c.do(ctx, http.MethodGet, "customFields", nil, nil, &out)
}

func (c *Client) AvailableTimes(ctx context.Context, date domain.Date, people int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("date", date.String())
	q.Set("people", strconv.Itoa(people))
	q.Set("onlyBookableOnline", "false")
	var out []map[string]any
	return out, c.do(ctx, http.MethodGet, "bookingFlow/times", q, nil, &out)
}

func (c *Client) AvailableTables(ctx context.Context, people int, fromDateTime, toDateTime string) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("people", strconv.Itoa(people))
	q.Set("fromDateTime", fromDateTime)
	q.Set("toDateTime", toDateTime)
	q.Set("returnAllTables", "true")
	var out []map[string]any
	return out, c.do(ctx, http.MethodGet, "bookingFlow/availableTables", q, nil, &out)
}

func (c *Client) OpeningHours(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	return out, c.do(ctx, http.MethodGet, "openingHours", nil, nil, &out)
}

func (c *Client) CreateBooking(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	return out, c.do(ctx, http.MethodPost, "bookings", nil, payload, &out)
}

func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) error {
	var out map[string]any
	body := map[string]any{"status": string(status)}
	return c.do(ctx, http.MethodPut, "bookings/"+url.PathEscape(bookingID), nil, body, &out)
}

// do performs one API call with rate limiting and bounded retries on
// 429/transient 5xx. The API key rides as the Basic auth username with an
// empty password.
func (c *Client) do(ctx context.Context, method, endpoint string, q url.Values, payload, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	var raw []byte
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	u := c.base + "/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for i := 0; i < httpx.MaxAttempts; i++ {
		var body io.Reader
		if raw != nil {
			body = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.key, "")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "resmatch/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal("resos", endpoint, 0, time.Since(start))
			lastErr = fmt.Errorf("resos: request failed: %w", err)
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, httpx.Backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("resos", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if resp.StatusCode == http.StatusNoContent {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return fmt.Errorf("resos: %w", domain.ErrUnauthorized)

		case httpx.Retryable(resp.StatusCode):
			wait := httpx.RetryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = httpx.Backoff(i)
			}
			lastErr = fmt.Errorf("resos: remote %d", resp.StatusCode)
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
			return fmt.Errorf("resos: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

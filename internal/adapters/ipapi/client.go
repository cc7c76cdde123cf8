// internal/adapters/ipapi/client.go
package ipapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sweepstakes/internal/adapters/observability"
	"sweepstakes/internal/domain"
)

var (
	ErrRateLimited = fmt.Errorf("ipapi: rate limited: %w", domain.ErrLookupFailed)
	ErrBadStatus   = fmt.Errorf("ipapi: bad status: %w", domain.ErrLookupFailed)
	ErrInvalidIP   = fmt.Errorf("ipapi: invalid ip: %w", domain.ErrLookupFailed)
)

// Client talks to an ipapi.co compatible geolocation endpoint.
// It never retries: a failed lookup is reported once and the caller fails open.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Locate returns the raw geolocation payload for ip. An empty ip asks
// about the caller's own address.
func (c *Client) Locate(ctx context.Context, ip string) (map[string]any, error) {
	u := c.base + "/json/"
	if ip != "" {
		if net.ParseIP(ip) == nil {
			return nil, ErrInvalidIP
		}
		u = c.base + "/" + url.PathEscape(ip) + "/json/"
	}
	var out map[string]any
	if err := c.get(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sweepstakes/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveGeoLookup("ipapi", 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ipapi: %w: %v", domain.ErrLookupFailed, err)
	}
	defer resp.Body.Close()
	observability.ObserveGeoLookup("ipapi", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(out); err != nil {
			return fmt.Errorf("ipapi: %w: %v", domain.ErrMalformed, err)
		}
		return nil

	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrRateLimited

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w %d: %s", ErrBadStatus, resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// IsLookupFailure reports whether err came from the remote service rather than the caller.
func IsLookupFailure(err error) bool {
	return errors.Is(err, domain.ErrLookupFailed) || errors.Is(err, domain.ErrMalformed)
}

package scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"talent-pipeline/internal/scrape/util"
)

// StatusError is a response the portal answered with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d", util.RedactURL(e.URL), e.Status)
}

// retryStatus are the gateway errors worth another attempt.
var retryStatus = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

type ClientOptions struct {
	// Attempts is the most requests made per URL. Default 3.
	Attempts int
	// Backoff is the pause between attempts. Default 1s.
	Backoff time.Duration
	Timeout time.Duration
	// InsecureSkipVerify turns TLS certificate checks off.
	InsecureSkipVerify bool
	Limiter            *util.HostLimiter
	Auth               *url.Userinfo
	UserAgent          string
}

type Client struct {
	hc   *http.Client
	opts ClientOptions
}

func NewClient(opts ClientOptions) *Client {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = util.NewHostLimiter(0, 1)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "talent-pipeline/1.0 (+local)"
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		hc:   &http.Client{Timeout: opts.Timeout, Transport: tr},
		opts: opts,
	}
}

// Get fetches raw and returns the body. Transport errors and gateway
// statuses are retried; other non-2xx statuses fail at once.
func (c *Client) Get(ctx context.Context, raw string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.opts.Backoff):
			}
		}

		body, retry, err := c.do(ctx, raw)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, raw string) ([]byte, bool, error) {
	if err := c.opts.Limiter.WaitURL(ctx, raw); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if c.opts.Auth != nil {
		pw, _ := c.opts.Auth.Password()
		req.SetBasicAuth(c.opts.Auth.Username(), pw)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = fmt.Errorf("get %s: %w", util.RedactURL(raw), uerr.Err)
		}
		return nil, true, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, retryStatus[res.StatusCode], &StatusError{URL: raw, Status: res.StatusCode}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", util.RedactURL(raw), err)
	}
	return body, false, nil
}

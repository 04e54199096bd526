package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 512

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout       time.Duration
	MaxRetries    int
	MinInterval   time.Duration // spacing between requests; 0 disables limiting
	RetryInterval time.Duration // first backoff step
	Proxy         string
	UserAgent     string
	Cookies       bool
}

// Client is an HTTP client shared by every upstream source. Requests are
// rate limited and transient failures are retried with exponential backoff.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	opts       ClientOptions
}

// NewClient creates a new Client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	hc := &http.Client{Timeout: opts.Timeout, Transport: transport}
	if opts.Cookies {
		jar, _ := cookiejar.New(nil)
		hc.Jar = jar
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Client{
		HTTPClient: hc,
		Limiter:    rate.NewLimiter(limit, 1),
		opts:       opts,
	}
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, rawURL, "", header)
}

// PostForm performs a form-encoded POST request and returns the response body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, header http.Header) ([]byte, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	return c.Do(ctx, http.MethodPost, rawURL, form.Encode(), h)
}

// Do sends the request, retrying network errors, 429 and 5xx responses.
// Other non-2xx responses fail immediately with a *StatusError.
func (c *Client) Do(ctx context.Context, method, rawURL, body string, header http.Header) ([]byte, error) {
	var out []byte
	operation := func() error {
		if err := c.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var rd io.Reader
		if body != "" {
			rd = strings.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.opts.UserAgent)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			se := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxErrorBody)}
			if se.Temporary() {
				return se
			}
			return backoff.Permanent(se)
		}
		out = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryInterval
	b.MaxElapsedTime = 0
	var policy backoff.BackOff = b
	if c.opts.MaxRetries >= 0 {
		policy = backoff.WithMaxRetries(b, uint64(c.opts.MaxRetries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", method, redact(rawURL), err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// redact drops the query string, which may carry credentials.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

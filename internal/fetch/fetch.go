// Package fetch retrieves image bytes for payloads that only carry a URI.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-niiview/internal/tuilog"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	fetchTimeout   = 2 * time.Minute
	// DefaultMaxBytes caps a single download.
	DefaultMaxBytes = 2 << 30
	// DefaultParallel is how many downloads FetchAll runs at once.
	DefaultParallel = 4
)

// Client downloads http(s) URLs and reads local paths.
type Client struct {
	client         *http.Client
	maxBytes       int64
	initialBackoff time.Duration
	parallel       int
}

// New creates a client with default limits.
func New() *Client {
	return &Client{
		client:         &http.Client{Timeout: fetchTimeout},
		maxBytes:       DefaultMaxBytes,
		initialBackoff: initialBackoff,
		parallel:       DefaultParallel,
	}
}

// Fetch returns the bytes behind uri. Server errors and 429 are retried
// with exponential backoff; other 4xx responses fail at once.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	start := time.Now()
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		data, err := c.readLocal(uri)
		observe("file", start, err)
		return data, err
	}

	var lastErr error
	backoff := c.initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			tuilog.Log.Debug("Retrying fetch", "uri", uri, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				observe("http", start, ctx.Err())
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		data, retry, err := c.get(ctx, uri)
		if err == nil {
			observe("http", start, nil)
			return data, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	observe("http", start, lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, uri string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retry, fmt.Errorf("fetch %s: server returned %d", uri, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", uri, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, false, fmt.Errorf("fetch %s: larger than %d bytes", uri, c.maxBytes)
	}
	return data, false, nil
}

func (c *Client) readLocal(uri string) ([]byte, error) {
	p := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("read %s: larger than %d bytes", p, c.maxBytes)
	}
	return data, nil
}

// Result is one finished download.
type Result struct {
	URI  string
	Data []byte
	Err  error
}

// FetchAll downloads every uri concurrently and calls done once per uri in
// completion order, not list order. Failures are reported through done and
// never stop the other downloads. It returns when all calls have been made
// or ctx is cancelled.
func (c *Client) FetchAll(ctx context.Context, uris []string, done func(Result)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.parallel, 1))
	for _, uri := range uris {
		g.Go(func() error {
			data, err := c.Fetch(gctx, uri)
			done(Result{URI: uri, Data: data, Err: err})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

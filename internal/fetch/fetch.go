package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options tune one download: the per-attempt timeout, the redirect hop
// budget, and the retry schedule applied around whole attempts.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	Retries      int
	RetryDelay   time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = 5
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	return o
}

// Fetcher downloads remote resources to local files. Redirects are followed
// manually against resolved absolute URLs so the hop budget is enforced, and
// failed attempts are retried with exponential backoff. Each retry starts
// the whole operation over: fresh connection, fresh redirect budget.
type Fetcher struct {
	logger zerolog.Logger
}

// NewFetcher constructs a Fetcher that logs attempt failures at debug level.
func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// Fetch downloads rawURL into dest. On success exactly one file exists at
// dest; on failure any partial file is removed best-effort and the returned
// error carries the total attempt count.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string, opts Options) error {
	opts = opts.withDefaults()

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("fetch: invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("fetch: unsupported scheme %q in %q", u.Scheme, rawURL)
	}

	attempts := opts.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := opts.RetryDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = f.fetchOnce(ctx, rawURL, dest, opts); lastErr == nil {
			return nil
		}
		f.logger.Debug().Err(lastErr).Str("url", rawURL).Int("attempt", attempt+1).Msg("fetch: attempt failed")
	}

	return fmt.Errorf("fetch %s failed after %d attempts: %w", rawURL, attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, dest string, opts Options) error {
	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	current := rawURL
	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return fmt.Errorf("build request for %s: %w", current, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return fmt.Errorf("redirect from %s without location", current)
			}
			if hop >= opts.MaxRedirects {
				return fmt.Errorf("too many redirects fetching %s", rawURL)
			}
			next, err := resp.Request.URL.Parse(location)
			if err != nil {
				return fmt.Errorf("resolve redirect %q: %w", location, err)
			}
			current = next.String()
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, current)
		}

		err = writeBody(dest, resp.Body)
		resp.Body.Close()
		return err
	}
}

func writeBody(dest string, body io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

// Package fetch retrieves raw page content for the crawler. Two
// implementations exist: a plain HTTP GET for static sites and a
// headless-browser fetcher for script-rendered ones.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "ChatboxBot/1.0 (+https://github.com/Golden-YG/Chatbox)"

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Result is one fetched page. HTML always carries the raw markup. Title
// and Text are set only by fetchers that extract content themselves
// (the chromedp fetcher); callers fall back to their own extraction when
// Text is empty.
type Result struct {
	URL    string
	Status int
	HTML   string
	Title  string
	Text   string
}

// Fetcher retrieves a single page. Implementations must honor the
// context and never hang past their configured timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}

type Type string

const (
	TypeHTTP     Type = "http"
	TypeChromedp Type = "chromedp"
)

// New creates a fetcher of the given type.
func New(t Type, timeout time.Duration, userAgent string) (Fetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	switch t {
	case TypeHTTP, "":
		return &HTTP{
			Client:    &http.Client{Timeout: timeout},
			UserAgent: userAgent,
		}, nil
	case TypeChromedp:
		return &Chromedp{Timeout: timeout, UserAgent: userAgent}, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher type: %q", t)
	}
}

// HTTP fetches pages with a plain GET request.
type HTTP struct {
	Client    *http.Client
	UserAgent string
}

func (f *HTTP) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{URL: url, Status: resp.StatusCode}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{URL: url, Status: resp.StatusCode}, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return Result{URL: url, Status: resp.StatusCode, HTML: string(body)}, nil
}

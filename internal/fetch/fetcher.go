// Package fetch retrieves recipe pages from untrusted URLs under strict
// scheme, host, redirect, size, and time constraints.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/metrics"
)

// Config controls fetcher behavior.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int
	MaxRedirects int
	UserAgent    string
	// AllowPrivate disables the private-address guard. Local development
	// and tests only; never set in production.
	AllowPrivate bool
}

// Result is the outcome of a successful page fetch.
type Result struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher fetches pages using a Colly collector per request.
type Fetcher struct {
	cfg    Config
	guard  Guard
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 4 * 1024 * 1024
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Fetcher{
		cfg:    cfg,
		guard:  Guard{AllowPrivate: cfg.AllowPrivate},
		logger: logger,
	}
}

// Fetch validates the URL, then executes a single GET. Every redirect hop is
// re-validated against the same safety rules. The response body is capped at
// MaxBodyBytes; larger responses fail rather than truncate.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	u, err := f.guard.ValidateURL(rawURL)
	if err != nil {
		return Result{}, err
	}
	if err := f.guard.ResolveAndValidate(ctx, u.Hostname()); err != nil {
		return Result{}, err
	}

	var (
		result   Result
		fetchErr error
	)
	start := time.Now()

	collector := colly.NewCollector(colly.Async(false))
	// MaxBodySize is one past the cap so an at-cap truncation is
	// distinguishable from a body that exactly fits.
	collector.MaxBodySize = f.cfg.MaxBodyBytes + 1
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.newTransport())
	collector.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) > f.cfg.MaxRedirects {
			return ErrTooManyRedirects
		}
		if _, err := f.guard.ValidateURL(req.URL.String()); err != nil {
			return err
		}
		return f.guard.ResolveAndValidate(req.Context(), req.URL.Hostname())
	})

	collector.OnResponse(func(r *colly.Response) {
		result = Result{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(u.String()); err != nil && fetchErr == nil {
			fetchErr = err
		}
		collector.Wait()
	}()
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
	case <-done:
	}

	if fetchErr != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	if result.StatusCode < 200 || result.StatusCode >= 300 {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, &HTTPStatusError{StatusCode: result.StatusCode})
	}
	if len(result.Body) > f.cfg.MaxBodyBytes {
		return Result{}, fmt.Errorf("fetch %s: %w", rawURL, ErrBodyTooLarge)
	}
	metrics.ObserveFetch(result.FinalURL, len(result.Body), result.Duration)
	f.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", result.StatusCode),
		zap.Int("bytes", len(result.Body)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (f *Fetcher) newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   f.cfg.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   f.guard.dialControl,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// Package source builds the catalog client and the shared retrying HTTP
// client used for catalog pages and cover images.
package source

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/source/yts"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
)

// Config contains what is needed to reach the catalog
type Config struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// retryLogger implements the retryablehttp.LeveledLogger interface on slog
type retryLogger struct {
	logger *slog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...any) {
	// Every attempt logs at info; keep it at debug
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn(msg, keysAndValues...)
}

// NewHTTPClient returns an http.Client that retries connection errors, 429
// and 5xx responses with exponential backoff. Once retries are exhausted the
// last response is handed back to the caller unchanged.
func NewHTTPClient(cfg Config, logger *slog.Logger) *http.Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = defaultRetries
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = timeout
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = &retryLogger{logger: logger.With("component", "http")}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}

// NewClient creates the catalog client for cfg
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (domain.CatalogClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("catalog URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog URL %q", cfg.URL)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg, logger)
	}
	return yts.NewClient(cfg.URL, httpClient, logger), nil
}

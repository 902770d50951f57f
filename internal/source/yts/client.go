package yts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/marquee/internal/domain"
)

const (
	listMoviesPath = "/list_movies.json"
	maxPageSize    = 50 // Server-side limit per page
	maxErrorBody   = 512
	maxBodyBytes   = 8 << 20 // A full page of 50 movies is well under this
)

// Client fetches catalog pages from a YTS-compatible API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.CatalogClient = (*Client)(nil)

// NewClient creates a catalog client. httpClient carries the retry policy;
// nil uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchPage returns one page of movies in the requested order
func (c *Client) FetchPage(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	body, err := c.doRequest(ctx, listMoviesPath, listQuery(req))
	if err != nil {
		return domain.Page{}, err
	}

	var resp ListMoviesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page{}, fmt.Errorf("%w: failed to parse response: %v", domain.ErrTransport, err)
	}
	if resp.Status != "ok" {
		return domain.Page{}, fmt.Errorf("%w: server status %q: %s", domain.ErrTransport, resp.Status, resp.StatusMessage)
	}

	return domain.Page{
		Items: MapMovies(resp.Data.Movies),
		Total: resp.Data.MovieCount,
	}, nil
}

// listQuery maps a page request to list_movies parameters
func listQuery(req domain.PageRequest) url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(req.Page, 1)))
	query.Set("limit", strconv.Itoa(min(max(req.PageSize, 1), maxPageSize)))
	if req.Sort != "" {
		query.Set("sort_by", string(req.Sort))
		query.Set("order_by", "desc")
	}

	crit := req.Criteria
	if crit.Genre != "" {
		query.Set("genre", crit.Genre)
	}
	if crit.MinRating > 0 {
		query.Set("minimum_rating", strconv.FormatFloat(crit.MinRating, 'f', -1, 64))
	}
	if crit.Language != "" {
		query.Set("language", crit.Language)
	}
	if crit.Query != "" {
		query.Set("query_term", crit.Query)
	}
	return query
}

// doRequest performs a GET and returns the body of a 200 response.
// Retries happen inside the http client.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("catalog request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}
		c.logger.Error("catalog request failed", "url", reqURL, "error", err)
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrTransport, domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrTransport, err)
	}
	if len(body) > maxBodyBytes {
		c.logger.Error("catalog response too large", "url", reqURL, "limit", maxBodyBytes)
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrTransport, maxBodyBytes)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("catalog rate limited", "url", reqURL)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("catalog request error", "status", resp.StatusCode, "body", truncate(body))
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrTransport, resp.StatusCode)
	}

	return body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}

// Package assets downloads cover images ahead of display.
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mmcdole/marquee/internal/domain"
)

const maxCoverBytes = 10 << 20

// CoverCache stores cover images on disk keyed by movie id.
type CoverCache struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.AssetPrefetcher = (*CoverCache)(nil)

// NewCoverCache creates the cache directory if needed
func NewCoverCache(dir string, httpClient *http.Client, logger *slog.Logger) (*CoverCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if dir == "" {
		return nil, errors.New("cover cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &CoverCache{dir: dir, httpClient: httpClient, logger: logger}, nil
}

// Path returns the cached file for id and whether it exists
func (c *CoverCache) Path(id string) (string, bool) {
	path := c.fileFor(id)
	_, err := os.Stat(path)
	return path, err == nil
}

// Prefetch downloads the movie's cover unless it has none or is cached.
func (c *CoverCache) Prefetch(ctx context.Context, movie *domain.Movie) error {
	if movie == nil || movie.CoverURL == "" {
		return nil
	}
	path, ok := c.Path(movie.ID)
	if ok {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, movie.CoverURL, nil)
	if err != nil {
		return fmt.Errorf("cover request for %s: %w", movie.ID, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download cover for %s: %w", movie.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download cover for %s: unexpected status code: %d", movie.ID, resp.StatusCode)
	}

	// Write to a temp file first so a partial download is never visible
	tmp, err := os.CreateTemp(c.dir, ".cover-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(resp.Body, maxCoverBytes)); err != nil {
		tmp.Close()
		return fmt.Errorf("write cover for %s: %w", movie.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	c.logger.Debug("cover cached", "id", movie.ID, "path", path)
	return nil
}

func (c *CoverCache) fileFor(id string) string {
	hash := sha256.Sum256([]byte(id))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:6])+".jpg")
}

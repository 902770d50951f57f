package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/marquee/internal/domain"
)

// trackedKinds are the history flags annotated onto catalog items
var trackedKinds = []domain.HistoryKind{domain.HistoryFavorite, domain.HistoryWatched}

// CrossRef mirrors the history store's flag sets so views can annotate items
// without a store round trip, and routes history changes to views.
type CrossRef struct {
	history domain.HistoryStore
	logger  *slog.Logger

	mu    sync.RWMutex
	flags map[domain.HistoryKind]map[string]struct{}
}

// NewCrossRef creates an empty cross-reference; call Load before use.
func NewCrossRef(history domain.HistoryStore, logger *slog.Logger) *CrossRef {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CrossRef{
		history: history,
		logger:  logger,
		flags:   make(map[domain.HistoryKind]map[string]struct{}),
	}
	for _, kind := range trackedKinds {
		c.flags[kind] = make(map[string]struct{})
	}
	return c
}

// Load primes the flag sets from the history store
func (c *CrossRef) Load(ctx context.Context) error {
	loaded := make(map[domain.HistoryKind]map[string]struct{}, len(trackedKinds))
	for _, kind := range trackedKinds {
		ids, err := c.history.IDs(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s history: %w", kind, err)
		}
		loaded[kind] = ids
	}

	c.mu.Lock()
	c.flags = loaded
	c.mu.Unlock()

	c.logger.Debug("history cross-reference loaded",
		"favorites", len(loaded[domain.HistoryFavorite]),
		"watched", len(loaded[domain.HistoryWatched]),
	)
	return nil
}

// IsFlagged reports whether id carries the given history flag
func (c *CrossRef) IsFlagged(kind domain.HistoryKind, id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.flags[kind][id]
	return ok
}

// Annotate returns items with history flags applied. Items whose flags
// already match are returned as-is; the rest are replaced by clones.
func (c *CrossRef) Annotate(items []*domain.Movie) []*domain.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Movie, len(items))
	for i, item := range items {
		_, fav := c.flags[domain.HistoryFavorite][item.ID]
		_, seen := c.flags[domain.HistoryWatched][item.ID]
		if item.IsFavorite == fav && item.HasBeenSeen == seen {
			out[i] = item
			continue
		}
		clone := item.Clone()
		clone.IsFavorite = fav
		clone.HasBeenSeen = seen
		out[i] = clone
	}
	return out
}

// apply folds a change into the flag sets
func (c *CrossRef) apply(change domain.HistoryChange) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.flags[change.Kind]
	if !ok {
		set = make(map[string]struct{})
		c.flags[change.Kind] = set
	}
	if change.Flagged {
		set[change.ID] = struct{}{}
	} else {
		delete(set, change.ID)
	}
}

// Handle routes a history change: views sourced from the changed kind resync
// against the full set, every other view re-annotates the one item.
func (c *CrossRef) Handle(change domain.HistoryChange, views []*View) {
	c.apply(change)

	if change.Flagged && change.Movie == nil {
		c.logger.Warn("history change without movie data",
			"kind", change.Kind,
			"id", change.ID,
			"error", domain.ErrHistoryInconsistency,
		)
	}

	for _, v := range views {
		if v.HistoryKind() == change.Kind {
			v.ResyncAsync()
			continue
		}
		v.Annotate(change.Kind, change.ID, change.Flagged)
	}
}

package domain

import "context"

// CatalogClient fetches pages of the remote catalog (implemented by source clients).
// A cancelled ctx must surface as ErrCancelled; other failures wrap ErrTransport.
type CatalogClient interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}

// HistoryStore is the read side of the favorite/watched history.
type HistoryStore interface {
	// IDs returns the set of movie ids flagged with kind
	IDs(ctx context.Context, kind HistoryKind) (map[string]struct{}, error)

	// Items returns the stored movies flagged with kind, oldest first.
	// Records without movie data are reported through the returned skipped ids.
	Items(ctx context.Context, kind HistoryKind) (items []*Movie, skipped []string, err error)

	// Subscribe registers fn for changes of kind. The returned func unsubscribes.
	Subscribe(kind HistoryKind, fn func(HistoryChange)) func()
}

// AssetPrefetcher downloads auxiliary assets (cover images) ahead of display.
// Best effort: callers log and drop errors.
type AssetPrefetcher interface {
	Prefetch(ctx context.Context, movie *Movie) error
}

// FilterSource publishes filter criteria changes.
type FilterSource interface {
	Current() Criteria
	Subscribe(key FilterKey, fn func(FilterChange)) func()
}

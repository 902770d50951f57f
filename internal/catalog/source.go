package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/marquee/internal/domain"
)

// Source is where a view's items come from.
type Source interface {
	// Fetch returns one page. page is 1-based.
	Fetch(ctx context.Context, page, pageSize int, criteria domain.Criteria) (domain.Page, error)

	// Mode is how fetched pages are merged into the view
	Mode() MergeMode

	// Paged is false for sources that return the whole authoritative set
	Paged() bool
}

// catalogSource pages through the remote catalog in a fixed sort order.
type catalogSource struct {
	client domain.CatalogClient
	sort   domain.SortOrder
}

// NewCatalogSource returns a paged, additive source over client.
func NewCatalogSource(client domain.CatalogClient, sort domain.SortOrder) Source {
	return &catalogSource{client: client, sort: sort}
}

func (s *catalogSource) Fetch(ctx context.Context, page, pageSize int, criteria domain.Criteria) (domain.Page, error) {
	return s.client.FetchPage(ctx, domain.PageRequest{
		Page:     page,
		PageSize: pageSize,
		Sort:     s.sort,
		Criteria: criteria,
	})
}

func (s *catalogSource) Mode() MergeMode { return MergeUnion }
func (s *catalogSource) Paged() bool     { return true }

// historySource serves the full set of movies flagged with one history kind.
type historySource struct {
	history domain.HistoryStore
	kind    domain.HistoryKind
	logger  *slog.Logger
}

// NewHistorySource returns an authoritative source over the history store.
func NewHistorySource(history domain.HistoryStore, kind domain.HistoryKind, logger *slog.Logger) Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &historySource{history: history, kind: kind, logger: logger}
}

func (s *historySource) Fetch(ctx context.Context, _, _ int, _ domain.Criteria) (domain.Page, error) {
	items, skipped, err := s.history.Items(ctx, s.kind)
	if err != nil {
		return domain.Page{}, fmt.Errorf("read %s history: %w", s.kind, err)
	}
	for _, id := range skipped {
		s.logger.Warn("skipping history record",
			"kind", s.kind,
			"id", id,
			"error", domain.ErrHistoryInconsistency,
		)
	}
	return domain.Page{Items: items, Total: len(items)}, nil
}

func (s *historySource) Mode() MergeMode { return MergeReplace }
func (s *historySource) Paged() bool     { return false }

// Package history owns the favorite and watched flags. Service is the only
// write path: every change is stored and then published synchronously.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/events"
)

// Store is the persistence the service writes through
type Store interface {
	Get(kind domain.HistoryKind, id string) (domain.HistoryRecord, bool, error)
	Put(kind domain.HistoryKind, rec domain.HistoryRecord) error
	Delete(kind domain.HistoryKind, id string) error
	List(kind domain.HistoryKind) ([]domain.HistoryRecord, error)
}

var _ domain.HistoryStore = (*Service)(nil)

// Service reads and writes history flags.
type Service struct {
	store  Store
	bus    *events.Bus[domain.HistoryKind, domain.HistoryChange]
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new history service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		bus:    events.NewBus[domain.HistoryKind, domain.HistoryChange](),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers fn for changes of kind
func (s *Service) Subscribe(kind domain.HistoryKind, fn func(domain.HistoryChange)) func() {
	return s.bus.Subscribe(kind, fn)
}

// IDs returns the ids flagged with kind
func (s *Service) IDs(ctx context.Context, kind domain.HistoryKind) (map[string]struct{}, error) {
	records, err := s.records(ctx, kind)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(records))
	for _, rec := range records {
		ids[rec.ID] = struct{}{}
	}
	return ids, nil
}

// Items returns the movies flagged with kind, oldest first. Records stored
// without movie data are reported as skipped.
func (s *Service) Items(ctx context.Context, kind domain.HistoryKind) ([]*domain.Movie, []string, error) {
	records, err := s.records(ctx, kind)
	if err != nil {
		return nil, nil, err
	}
	items := make([]*domain.Movie, 0, len(records))
	var skipped []string
	for _, rec := range records {
		if rec.Movie == nil {
			skipped = append(skipped, rec.ID)
			continue
		}
		items = append(items, rec.Movie.WithFlag(kind, true))
	}
	return items, skipped, nil
}

// IsFlagged reports whether id carries kind
func (s *Service) IsFlagged(kind domain.HistoryKind, id string) (bool, error) {
	_, ok, err := s.store.Get(kind, id)
	return ok, err
}

// SetFavorite flags or unflags movie as a favorite
func (s *Service) SetFavorite(ctx context.Context, movie *domain.Movie, favorite bool) error {
	return s.set(ctx, domain.HistoryFavorite, movie, favorite)
}

// ToggleFavorite flips the favorite flag and returns the new state
func (s *Service) ToggleFavorite(ctx context.Context, movie *domain.Movie) (bool, error) {
	return s.toggle(ctx, domain.HistoryFavorite, movie)
}

// SetWatched flags or unflags movie as seen
func (s *Service) SetWatched(ctx context.Context, movie *domain.Movie, watched bool) error {
	return s.set(ctx, domain.HistoryWatched, movie, watched)
}

// ToggleWatched flips the watched flag and returns the new state
func (s *Service) ToggleWatched(ctx context.Context, movie *domain.Movie) (bool, error) {
	return s.toggle(ctx, domain.HistoryWatched, movie)
}

// Remove unflags id without needing its movie data
func (s *Service) Remove(ctx context.Context, kind domain.HistoryKind, id string) error {
	return s.set(ctx, kind, &domain.Movie{ID: id}, false)
}

func (s *Service) toggle(ctx context.Context, kind domain.HistoryKind, movie *domain.Movie) (bool, error) {
	if movie == nil {
		return false, domain.ErrItemNotFound
	}
	flagged, err := s.IsFlagged(kind, movie.ID)
	if err != nil {
		return false, err
	}
	if err := s.set(ctx, kind, movie, !flagged); err != nil {
		return flagged, err
	}
	return !flagged, nil
}

func (s *Service) set(ctx context.Context, kind domain.HistoryKind, movie *domain.Movie, flagged bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if movie == nil || movie.ID == "" {
		return domain.ErrItemNotFound
	}

	var change domain.HistoryChange
	if flagged {
		snapshot := movie.Clone()
		// Annotations are derived, never persisted
		snapshot.IsFavorite = false
		snapshot.HasBeenSeen = false
		rec := domain.HistoryRecord{ID: movie.ID, Movie: snapshot, UpdatedAt: s.now().Unix()}
		if prev, ok, err := s.store.Get(kind, movie.ID); err == nil && ok {
			// Re-flagging keeps the original position
			rec.UpdatedAt = prev.UpdatedAt
		}
		switch kind {
		case domain.HistoryFavorite:
			rec.IsFavorite = true
		case domain.HistoryWatched:
			rec.HasBeenSeen = true
		}
		if err := s.store.Put(kind, rec); err != nil {
			s.logger.Error("failed to save history", "kind", string(kind), "id", movie.ID, "error", err)
			return fmt.Errorf("save %s %s: %w", kind, movie.ID, err)
		}
		change = domain.HistoryChange{Kind: kind, ID: movie.ID, Flagged: true, Movie: snapshot}
	} else {
		if err := s.store.Delete(kind, movie.ID); err != nil {
			s.logger.Error("failed to delete history", "kind", string(kind), "id", movie.ID, "error", err)
			return fmt.Errorf("delete %s %s: %w", kind, movie.ID, err)
		}
		change = domain.HistoryChange{Kind: kind, ID: movie.ID, Flagged: false}
	}

	s.logger.Debug("history updated", "kind", string(kind), "id", movie.ID, "flagged", flagged)
	s.bus.Publish(kind, change)
	return nil
}

func (s *Service) records(ctx context.Context, kind domain.HistoryKind) ([]domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.List(kind)
}

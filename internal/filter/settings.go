// Package filter holds the user's catalog filter criteria and publishes every
// effective change to the views that depend on it.
package filter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"golang.org/x/text/language"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/events"
)

// MaxRating is the highest minimum-rating filter the catalog accepts
const MaxRating = 9

// Languages offered by the language cycle; "" means any language.
var Languages = []string{"", "en", "fr", "es", "de", "it", "ja", "ko", "zh", "hi"}

var (
	// ErrUnknownGenre indicates a genre outside domain.Genres
	ErrUnknownGenre = errors.New("unknown genre")

	// ErrInvalidLanguage indicates a language that is not a valid BCP 47 tag
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// Settings is the filter source for the catalog engine.
type Settings struct {
	bus    *events.Bus[domain.FilterKey, domain.FilterChange]
	logger *slog.Logger

	mu      sync.Mutex // Serializes writers so changes publish in order
	stateMu sync.RWMutex
	current domain.Criteria
}

// NewSettings creates settings starting from initial. Invalid initial values
// are normalized the same way the setters normalize them.
func NewSettings(initial domain.Criteria, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{
		bus:    events.NewBus[domain.FilterKey, domain.FilterChange](),
		logger: logger,
	}
	normalized, err := Normalize(initial)
	if err != nil {
		logger.Warn("ignoring invalid filter settings", "error", err)
	}
	s.current = normalized
	return s
}

// Current returns the applied criteria
func (s *Settings) Current() domain.Criteria {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.current
}

// Subscribe registers fn for changes of key
func (s *Settings) Subscribe(key domain.FilterKey, fn func(domain.FilterChange)) func() {
	return s.bus.Subscribe(key, fn)
}

// SetGenre selects a genre; "" means all genres.
func (s *Settings) SetGenre(genre string) error {
	if !slices.Contains(domain.Genres, genre) {
		return fmt.Errorf("%w: %q", ErrUnknownGenre, genre)
	}
	s.update(domain.FilterGenre, domain.Criteria{Genre: genre})
	return nil
}

// SetMinRating sets the minimum rating, clamped to 0..MaxRating.
func (s *Settings) SetMinRating(rating float64) {
	s.update(domain.FilterMinRating, domain.Criteria{MinRating: clampRating(rating)})
}

// SetLanguage sets the language filter. The tag is canonicalized; "" clears it.
func (s *Settings) SetLanguage(tag string) error {
	canonical, err := canonicalLanguage(tag)
	if err != nil {
		return err
	}
	s.update(domain.FilterLanguage, domain.Criteria{Language: canonical})
	return nil
}

// SetQuery sets the free-text search term
func (s *Settings) SetQuery(query string) {
	s.update(domain.FilterQuery, domain.Criteria{Query: query})
}

// Apply replaces every criterion at once, publishing one change per key that
// actually differs. Nothing is applied if any value is invalid.
func (s *Settings) Apply(next domain.Criteria) error {
	normalized, err := Normalize(next)
	if err != nil {
		return err
	}
	for _, key := range domain.AllFilterKeys {
		s.update(key, normalized)
	}
	return nil
}

// CycleGenre moves to the next (or previous) known genre and returns it.
func (s *Settings) CycleGenre(step int) string {
	current := s.Current().Genre
	idx := max(slices.Index(domain.Genres, current), 0)
	n := len(domain.Genres)
	next := domain.Genres[((idx+step)%n+n)%n]
	s.update(domain.FilterGenre, domain.Criteria{Genre: next})
	return next
}

// CycleLanguage moves through Languages and returns the new tag.
func (s *Settings) CycleLanguage(step int) string {
	current := s.Current().Language
	idx := max(slices.Index(Languages, current), 0)
	n := len(Languages)
	next := Languages[((idx+step)%n+n)%n]
	s.update(domain.FilterLanguage, domain.Criteria{Language: next})
	return next
}

// update sets one criterion from src and publishes if it changed.
func (s *Settings) update(key domain.FilterKey, src domain.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stateMu.Lock()
	old := s.current
	s.current = old.With(key, src)
	next := s.current
	s.stateMu.Unlock()

	change := domain.FilterChange{Key: key, Old: old, New: next}
	if !change.Changed() {
		return
	}
	s.logger.Info("filter updated",
		"key", string(key),
		"old", old.Value(key),
		"new", next.Value(key),
	)
	s.bus.Publish(key, change)
}

// Normalize validates c and returns it in canonical form.
func Normalize(c domain.Criteria) (domain.Criteria, error) {
	var errs []error
	if !slices.Contains(domain.Genres, c.Genre) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownGenre, c.Genre))
		c.Genre = ""
	}
	c.MinRating = clampRating(c.MinRating)
	lang, err := canonicalLanguage(c.Language)
	if err != nil {
		errs = append(errs, err)
	}
	c.Language = lang
	return c, errors.Join(errs...)
}

func clampRating(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	return min(max(r, 0), MaxRating)
}

func canonicalLanguage(tag string) (string, error) {
	if tag == "" {
		return "", nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, tag, err)
	}
	base, _ := parsed.Base()
	return base.String(), nil
}

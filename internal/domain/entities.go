package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Movie is a catalog entry. Identity is the ID; everything else is display data.
// The engine never mutates a Movie held by a view: it swaps in a Clone.
type Movie struct {
	ID        string        // Stable catalog identifier
	Title     string        // Display title
	Year      int           // Release year
	Rating    float64       // Audience rating (0-10)
	Genres    []string      // Catalog genres, e.g. "Action"
	Language  string        // BCP 47 tag of the original language
	Runtime   time.Duration // Total runtime
	Summary   string        // Plot synopsis
	CoverURL  string        // Cover image URL (prefetched after reconciliation)
	DateAdded int64         // Unix timestamp when added to the catalog

	// History annotations, derived from the history store
	IsFavorite  bool
	HasBeenSeen bool
}

// Clone returns a copy that can be re-annotated without touching the original.
func (m *Movie) Clone() *Movie {
	if m == nil {
		return nil
	}
	c := *m
	c.Genres = slices.Clone(m.Genres)
	return &c
}

// Flagged reports the annotation for the given history kind.
func (m *Movie) Flagged(kind HistoryKind) bool {
	switch kind {
	case HistoryFavorite:
		return m.IsFavorite
	case HistoryWatched:
		return m.HasBeenSeen
	default:
		return false
	}
}

// WithFlag returns a clone with the annotation for kind set to flagged.
func (m *Movie) WithFlag(kind HistoryKind, flagged bool) *Movie {
	c := m.Clone()
	switch kind {
	case HistoryFavorite:
		c.IsFavorite = flagged
	case HistoryWatched:
		c.HasBeenSeen = flagged
	}
	return c
}

// FormattedRuntime returns the runtime in a human-readable format
func (m *Movie) FormattedRuntime() string {
	h := int(m.Runtime.Hours())
	mins := int(m.Runtime.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// GenreList returns the genres joined for display
func (m *Movie) GenreList() string {
	return strings.Join(m.Genres, ", ")
}

// GetDescription returns secondary info for list rows
func (m *Movie) GetDescription() string {
	desc := fmt.Sprintf("★ %.1f", m.Rating)
	if m.Year > 0 {
		desc = fmt.Sprintf("%d  %s", m.Year, desc)
	}
	if m.Runtime > 0 {
		desc += "  " + m.FormattedRuntime()
	}
	return desc
}

// Page is one response of the catalog: a slice of movies and the server's total.
type Page struct {
	Items []*Movie
	Total int
}

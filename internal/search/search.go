// Package search filters loaded movies by title.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sfuzzy "github.com/sahilm/fuzzy"

	"github.com/mmcdole/marquee/internal/domain"
)

// Match is one filter hit with the positions to highlight
type Match struct {
	Movie          *domain.Movie
	Index          int   // Position in the searched slice
	MatchedIndexes []int // Byte offsets into the lowercased title
	Score          int   // Higher is better
}

// Index implements sahilm/fuzzy.Source over movie titles
type Index struct {
	movies      []*domain.Movie
	lowerTitles []string // Pre-computed lowercase titles
}

// NewIndex builds an index over movies
func NewIndex(movies []*domain.Movie) *Index {
	idx := &Index{
		movies:      movies,
		lowerTitles: make([]string, len(movies)),
	}
	for i, m := range movies {
		idx.lowerTitles[i] = strings.ToLower(m.Title)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of movies (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.movies) }

// Filter returns movies whose title fuzzy-matches query, best first.
// An empty query matches nothing.
func (idx *Index) Filter(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	found := sfuzzy.FindFrom(query, idx)
	matches := make([]Match, len(found))
	for i, m := range found {
		matches[i] = Match{
			Movie:          idx.movies[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return matches
}

// Rank returns the movies whose title contains the letters of query in order,
// closest titles first. Used to narrow a page without a server round trip.
func Rank(query string, movies []*domain.Movie) []*domain.Movie {
	query = strings.TrimSpace(query)
	if query == "" {
		return movies
	}

	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}

	ranks := fuzzy.RankFindFold(query, titles)
	sort.Stable(ranks)

	out := make([]*domain.Movie, len(ranks))
	for i, r := range ranks {
		out[i] = movies[r.OriginalIndex]
	}
	return out
}

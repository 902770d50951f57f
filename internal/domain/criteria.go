package domain

import "strconv"

// FilterKey names a filter criterion. Views subscribe to the keys they care about.
type FilterKey string

const (
	FilterGenre     FilterKey = "genre"
	FilterMinRating FilterKey = "min_rating"
	FilterLanguage  FilterKey = "language"
	FilterQuery     FilterKey = "query"
)

// AllFilterKeys lists every criterion in display order
var AllFilterKeys = []FilterKey{FilterGenre, FilterMinRating, FilterLanguage, FilterQuery}

// Criteria is the set of user-selected filters applied to catalog requests.
type Criteria struct {
	Genre     string  // Empty = all genres
	MinRating float64 // 0 = no minimum
	Language  string  // BCP 47 tag, empty = server default
	Query     string  // Free-text search term
}

// Value returns a comparable representation of a single criterion.
func (c Criteria) Value(key FilterKey) string {
	switch key {
	case FilterGenre:
		return c.Genre
	case FilterMinRating:
		return strconv.FormatFloat(c.MinRating, 'f', -1, 64)
	case FilterLanguage:
		return c.Language
	case FilterQuery:
		return c.Query
	default:
		return ""
	}
}

// FilterChange is published whenever one criterion changes.
// Old and New are full snapshots so subscribers can adopt New directly.
type FilterChange struct {
	Key FilterKey
	Old Criteria
	New Criteria
}

// Changed reports whether the notification carries a different value for its key
func (f FilterChange) Changed() bool {
	return f.Old.Value(f.Key) != f.New.Value(f.Key)
}

// SortOrder is the fixed server-side ordering of a catalog view
type SortOrder string

const (
	SortDateAdded     SortOrder = "date_added"
	SortRating        SortOrder = "rating"
	SortDownloadCount SortOrder = "download_count"
)

// Genres known to the catalog, in the order the UI cycles through them.
// The empty string means "all".
var Genres = []string{
	"", "Action", "Adventure", "Animation", "Biography", "Comedy", "Crime",
	"Documentary", "Drama", "Family", "Fantasy", "History", "Horror", "Music",
	"Musical", "Mystery", "Romance", "Sci-Fi", "Sport", "Thriller", "War", "Western",
}

// PageRequest describes one call to the catalog
type PageRequest struct {
	Page     int // 1-based
	PageSize int
	Sort     SortOrder
	Criteria Criteria
}

// With returns c with the criterion for key copied from src.
func (c Criteria) With(key FilterKey, src Criteria) Criteria {
	switch key {
	case FilterGenre:
		c.Genre = src.Genre
	case FilterMinRating:
		c.MinRating = src.MinRating
	case FilterLanguage:
		c.Language = src.Language
	case FilterQuery:
		c.Query = src.Query
	}
	return c
}

// Restrict returns the criteria keeping only the given keys; the rest are zero.
func (c Criteria) Restrict(keys []FilterKey) Criteria {
	var out Criteria
	for _, k := range keys {
		out = out.With(k, c)
	}
	return out
}

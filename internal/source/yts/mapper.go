package yts

import (
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/marquee/internal/domain"
)

// MapMovies converts API movies to domain movies, dropping entries without an id
func MapMovies(movies []Movie) []*domain.Movie {
	items := make([]*domain.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID == 0 {
			continue
		}
		items = append(items, mapMovie(m))
	}
	return items
}

func mapMovie(m Movie) *domain.Movie {
	title := m.Title
	if title == "" {
		title = m.TitleEnglish
	}
	summary := m.Summary
	if summary == "" {
		summary = m.DescriptionFull
	}
	cover := m.MediumCoverImage
	if cover == "" {
		cover = m.LargeCoverImage
	}
	return &domain.Movie{
		ID:        strconv.Itoa(m.ID),
		Title:     title,
		Year:      m.Year,
		Rating:    m.Rating,
		Genres:    m.Genres,
		Language:  strings.ToLower(m.Language),
		Runtime:   time.Duration(m.Runtime) * time.Minute,
		Summary:   summary,
		CoverURL:  cover,
		DateAdded: m.DateUploadedUnix,
	}
}

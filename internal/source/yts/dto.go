package yts

// ListMoviesResponse is the envelope of list_movies.json
type ListMoviesResponse struct {
	Status        string         `json:"status"` // "ok" or "error"
	StatusMessage string         `json:"status_message"`
	Data          ListMoviesData `json:"data"`
}

// ListMoviesData is one page of results
type ListMoviesData struct {
	MovieCount int     `json:"movie_count"`
	Limit      int     `json:"limit"`
	PageNumber int     `json:"page_number"`
	Movies     []Movie `json:"movies,omitempty"` // Absent past the last page
}

// Movie is a catalog entry as returned by the API
type Movie struct {
	ID               int      `json:"id"`
	IMDBCode         string   `json:"imdb_code"`
	Title            string   `json:"title"`
	TitleEnglish     string   `json:"title_english,omitempty"`
	Year             int      `json:"year"`
	Rating           float64  `json:"rating"`
	Runtime          int      `json:"runtime"` // Minutes
	Genres           []string `json:"genres,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	DescriptionFull  string   `json:"description_full,omitempty"`
	Language         string   `json:"language,omitempty"`
	MediumCoverImage string   `json:"medium_cover_image,omitempty"`
	LargeCoverImage  string   `json:"large_cover_image,omitempty"`
	DateUploadedUnix int64    `json:"date_uploaded_unix,omitempty"`
}

package models

import "strings"

// Category is the closed set of catalog categories a movie may belong to.
type Category string

const (
	CategoryAction      Category = "Action"
	CategoryComedy      Category = "Comedy"
	CategoryDrama       Category = "Drama"
	CategoryHorror      Category = "Horror"
	CategoryThriller    Category = "Thriller"
	CategorySciFi       Category = "Sci-Fi"
	CategoryFantasy     Category = "Fantasy"
	CategoryRomance     Category = "Romance"
	CategoryAnimation   Category = "Animation"
	CategoryDocumentary Category = "Documentary"
	CategoryFamily      Category = "Family"
	CategoryCrime       Category = "Crime"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryAction,
	CategoryComedy,
	CategoryDrama,
	CategoryHorror,
	CategoryThriller,
	CategorySciFi,
	CategoryFantasy,
	CategoryRomance,
	CategoryAnimation,
	CategoryDocumentary,
	CategoryFamily,
	CategoryCrime,
}

// ParseCategory maps a free-form string onto the category enum.
// Matching is case-insensitive; unknown values return false.
func ParseCategory(s string) (Category, bool) {
	trimmed := strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c, true
		}
	}
	return "", false
}

// MovieRecord is one catalog entry. Records are created by the ingestion
// pipeline exactly once and never mutated or deleted by it afterwards.
type MovieRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	SeriesTitle string   `json:"seriesTitle,omitempty"`
	PartNumber  int      `json:"partNumber"`
	PosterPath  string   `json:"posterPath"`
	SourceURL   string   `json:"sourceUrl,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Category    Category `json:"category"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Stars       []string `json:"stars,omitempty"`
	Runtime     string   `json:"runtime,omitempty"` // display string, e.g. "102 min"
	Rating      float64  `json:"rating"`
	Description string   `json:"description,omitempty"`
	Popularity  int      `json:"popularity"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

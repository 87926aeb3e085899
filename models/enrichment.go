package models

// EnrichedMetadata is the normalized movie metadata produced by the AI
// enrichment service for one candidate video.
type EnrichedMetadata struct {
	Title       string   `json:"title"`
	SeriesTitle string   `json:"seriesTitle"`
	PartNumber  int      `json:"partNumber"`
	Description string   `json:"description"`
	Stars       []string `json:"stars"`
	Genre       string   `json:"genre"`
	Category    Category `json:"category"`
}

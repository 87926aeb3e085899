package models

// Thumbnail is one rendition of a video's thumbnail image.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Video is the platform metadata for one upload, as returned by the batched
// video details call.
type Video struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	PublishedAt string               `json:"publishedAt"`
	Duration    string               `json:"duration"` // platform-native encoding (ISO-8601)
	Thumbnails  map[string]Thumbnail `json:"thumbnails"`
}

// thumbnailPreference orders renditions best to worst.
var thumbnailPreference = []string{"maxres", "standard", "high", "medium", "default"}

// BestThumbnailURL returns the highest-resolution thumbnail available,
// or "" when the video has none.
func (v Video) BestThumbnailURL() string {
	for _, key := range thumbnailPreference {
		if t, ok := v.Thumbnails[key]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

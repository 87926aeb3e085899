package models

// ChannelProgress tracks how far ingestion has paged through one monitored
// channel. ProcessedVideoIDs is a set: a video id added here is never
// re-evaluated, whatever its outcome was.
type ChannelProgress struct {
	ChannelID         string   `json:"channelId"`
	LastPageToken     string   `json:"lastPageToken,omitempty"`
	ProcessedVideoIDs []string `json:"processedVideoIds"`
}

// HasProcessed reports whether the given video id was already evaluated.
func (p ChannelProgress) HasProcessed(videoID string) bool {
	for _, id := range p.ProcessedVideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// MarkProcessed records a video id as evaluated. Duplicate ids are ignored.
func (p *ChannelProgress) MarkProcessed(videoID string) {
	if videoID == "" || p.HasProcessed(videoID) {
		return
	}
	p.ProcessedVideoIDs = append(p.ProcessedVideoIDs, videoID)
}

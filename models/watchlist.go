package models

import "time"

// WatchlistItem represents a catalog movie saved by a user for quick access.
type WatchlistItem struct {
	MovieID string    `json:"movieId"`
	Title   string    `json:"title"`
	AddedAt time.Time `json:"addedAt"`
}

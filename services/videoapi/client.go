package videoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"reelvault/models"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrChannelNotFound is returned when a channel URL or handle cannot be
// resolved to a channel id. Resolution failures of any kind collapse into
// this error; the caller skips the channel for the run.
var ErrChannelNotFound = errors.New("channel not found")

// ErrPlaylistNotFound is returned when a channel has no uploads playlist.
var ErrPlaylistNotFound = errors.New("uploads playlist not found")

// Client talks to the video platform metadata API.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a metadata API client.
func NewClient(apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     defaultBaseURL,
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

// SetBaseURL overrides the API endpoint (used by tests).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// doGET performs an HTTP GET with rate limiting and retry with backoff.
// 4xx responses other than 429 are not retried.
func (c *Client) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	query.Set("key", c.apiKey)
	full := c.baseURL + endpoint + "?" + query.Encode()

	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return fmt.Errorf("video api request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("video api request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode video api response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type searchResponse struct {
	Items []struct {
		ID struct {
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			CustomURL    string `json:"customUrl"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string                      `json:"title"`
			Description string                      `json:"description"`
			PublishedAt string                      `json:"publishedAt"`
			Thumbnails  map[string]models.Thumbnail `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// ResolveChannelURL maps a channel URL to a stable channel id. Two forms are
// accepted: direct id URLs (".../channel/<id>") which resolve without a
// network call, and handle URLs ("@name"). For handles, an exact
// case-insensitive match on display name or handle wins; otherwise the first
// search result is used. Any failure resolves to ErrChannelNotFound.
func (c *Client) ResolveChannelURL(ctx context.Context, channelURL string) (string, error) {
	channelURL = strings.TrimSpace(channelURL)

	if idx := strings.Index(channelURL, "/channel/"); idx >= 0 {
		id := channelURL[idx+len("/channel/"):]
		if cut := strings.IndexAny(id, "/?"); cut >= 0 {
			id = id[:cut]
		}
		if id == "" {
			return "", ErrChannelNotFound
		}
		return id, nil
	}

	handle := extractHandle(channelURL)
	if handle == "" {
		return "", ErrChannelNotFound
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("maxResults", "10")
	q.Set("q", handle)

	var resp searchResponse
	if err := c.doGET(ctx, "/search", q, &resp); err != nil {
		return "", ErrChannelNotFound
	}
	if len(resp.Items) == 0 {
		return "", ErrChannelNotFound
	}

	for _, item := range resp.Items {
		if item.ID.ChannelID == "" {
			continue
		}
		if strings.EqualFold(item.Snippet.Title, handle) ||
			strings.EqualFold(item.Snippet.ChannelTitle, handle) ||
			strings.EqualFold(strings.TrimPrefix(item.Snippet.CustomURL, "@"), handle) {
			return item.ID.ChannelID, nil
		}
	}

	if resp.Items[0].ID.ChannelID == "" {
		return "", ErrChannelNotFound
	}
	return resp.Items[0].ID.ChannelID, nil
}

// extractHandle pulls the "@name" handle out of a channel URL, without the
// leading "@". Returns "" when the URL carries no handle.
func extractHandle(channelURL string) string {
	at := strings.Index(channelURL, "@")
	if at < 0 {
		return ""
	}
	handle := channelURL[at+1:]
	if cut := strings.IndexAny(handle, "/?"); cut >= 0 {
		handle = handle[:cut]
	}
	return handle
}

// UploadsPlaylistID returns the id of the channel's uploads playlist.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", channelID)

	var resp channelsResponse
	if err := c.doGET(ctx, "/channels", q, &resp); err != nil {
		return "", fmt.Errorf("lookup uploads playlist: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", ErrPlaylistNotFound
	}
	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", ErrPlaylistNotFound
	}
	return uploads, nil
}

// PlaylistPage fetches one bounded page of video ids from a playlist.
// An empty pageToken starts from the beginning. The returned token is ""
// when the playlist end was reached.
func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string, pageSize int) ([]string, string, error) {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", fmt.Sprintf("%d", pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp playlistItemsResponse
	if err := c.doGET(ctx, "/playlistItems", q, &resp); err != nil {
		return nil, "", fmt.Errorf("list playlist page: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	return ids, resp.NextPageToken, nil
}

// VideoDetails fetches full metadata for a batch of video ids in one call.
// Ids the platform does not return (deleted/private videos) are absent from
// the result.
func (c *Client) VideoDetails(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.doGET(ctx, "/videos", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, models.Video{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			PublishedAt: item.Snippet.PublishedAt,
			Duration:    item.ContentDetails.Duration,
			Thumbnails:  item.Snippet.Thumbnails,
		})
	}
	return videos, nil
}

// WatchURL returns the canonical public URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelvault/models"
	"reelvault/services/catalog"
	"reelvault/services/notify"
	"reelvault/services/progress"
	"reelvault/services/videoapi"
)

// ErrAlreadyRunning is returned when a run is requested for a channel that is
// currently being ingested. Overlapping runs against the same channel would
// race the progress file, so the second trigger is refused instead.
var ErrAlreadyRunning = errors.New("ingestion already running for this channel")

// PlatformClient is the video platform metadata API surface the pipeline needs.
type PlatformClient interface {
	ResolveChannelURL(ctx context.Context, channelURL string) (string, error)
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string, pageSize int) ([]string, string, error)
	VideoDetails(ctx context.Context, ids []string) ([]models.Video, error)
}

// Enricher normalizes raw video metadata into canonical movie metadata.
type Enricher interface {
	Enrich(ctx context.Context, title, description string) (models.EnrichedMetadata, error)
}

// PosterFetcher downloads and stores a poster image, returning its web path.
type PosterFetcher interface {
	Download(ctx context.Context, imageURL, title string) (string, error)
}

// RunOptions carries the operator-configured ingestion parameters for one run.
type RunOptions struct {
	MinDurationMinutes int
	BatchSize          int
}

// RunResult summarizes one ingestion run.
type RunResult struct {
	RunID         string    `json:"runId"`
	ChannelURL    string    `json:"channelUrl"`
	ChannelID     string    `json:"channelId,omitempty"`
	AddedTitles   []string  `json:"addedTitles,omitempty"`
	Evaluated     int       `json:"evaluated"`
	Skipped       int       `json:"skipped"`
	SkipReasons   []string  `json:"skipReasons,omitempty"`
	Drained       bool      `json:"drained"`
	MorePages     bool      `json:"morePages"`
	PersistErrors int       `json:"persistErrors"`
	Summary       string    `json:"summary"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Service orchestrates channel ingestion runs. One run processes one channel:
// resolve the channel, fetch the next batch from its uploads playlist,
// evaluate each unseen candidate sequentially, then persist catalog additions
// and progress. Every run ends idle with exactly one operator summary.
type Service struct {
	platform PlatformClient
	enricher Enricher
	posters  PosterFetcher
	catalog  *catalog.Service
	progress *progress.Service
	notifier notify.Notifier

	mu      sync.Mutex
	running map[string]bool
	last    map[string]RunResult
}

// NewService wires the ingestion orchestrator.
func NewService(
	platform PlatformClient,
	enricher Enricher,
	posters PosterFetcher,
	catalogSvc *catalog.Service,
	progressSvc *progress.Service,
	notifier notify.Notifier,
) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{
		platform: platform,
		enricher: enricher,
		posters:  posters,
		catalog:  catalogSvc,
		progress: progressSvc,
		notifier: notifier,
		running:  make(map[string]bool),
		last:     make(map[string]RunResult),
	}
}

// IsRunning reports whether a run is in flight for the given channel URL.
func (s *Service) IsRunning(channelURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[channelURL]
}

// RunningChannels lists channels with runs currently in flight.
func (s *Service) RunningChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.running))
	for url, active := range s.running {
		if active {
			out = append(out, url)
		}
	}
	return out
}

// LastResults returns the most recent run result per channel URL.
func (s *Service) LastResults() map[string]RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]RunResult, len(s.last))
	for url, res := range s.last {
		out[url] = res
	}
	return out
}

// Run executes one ingestion run for the given channel URL. The run is
// strictly sequential; candidate failures are isolated and never abort the
// batch. The returned error is non-nil only for run-level failures (channel
// busy, resolution or playlist lookup failure); the result always carries
// the operator summary that was sent.
func (s *Service) Run(ctx context.Context, channelURL string, opts RunOptions) (RunResult, error) {
	if !s.tryAcquire(channelURL) {
		return RunResult{ChannelURL: channelURL}, ErrAlreadyRunning
	}
	defer s.release(channelURL)

	if opts.BatchSize < 1 {
		opts.BatchSize = 5
	}
	if opts.MinDurationMinutes < 1 {
		opts.MinDurationMinutes = 25
	}

	res := RunResult{
		RunID:      uuid.NewString(),
		ChannelURL: channelURL,
	}

	res, err := s.run(ctx, res, channelURL, opts)
	res.FinishedAt = time.Now().UTC()

	s.mu.Lock()
	s.last[channelURL] = res
	s.mu.Unlock()

	// Exactly one operator message per run, whatever the outcome.
	if notifyErr := s.notifier.Notify(ctx, res.Summary); notifyErr != nil {
		log.Printf("[ingest] failed to deliver run summary: %v", notifyErr)
	}

	return res, err
}

func (s *Service) run(ctx context.Context, res RunResult, channelURL string, opts RunOptions) (RunResult, error) {
	log.Printf("[ingest] run %s: starting for %s", res.RunID, channelURL)

	channelID, err := s.platform.ResolveChannelURL(ctx, channelURL)
	if err != nil {
		res.Summary = fmt.Sprintf("Ingestion failed: could not resolve channel %s.", channelURL)
		log.Printf("[ingest] run %s: resolve failed: %v", res.RunID, err)
		return res, err
	}
	res.ChannelID = channelID

	playlistID, err := s.platform.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		res.Summary = fmt.Sprintf("Ingestion failed: uploads playlist not found for %s.", channelURL)
		log.Printf("[ingest] run %s: playlist lookup failed: %v", res.RunID, err)
		return res, err
	}

	prog := s.progress.Load(channelID)

	videoIDs, nextToken, err := s.platform.PlaylistPage(ctx, playlistID, prog.LastPageToken, opts.BatchSize)
	if err != nil {
		res.Summary = fmt.Sprintf("Ingestion failed: could not list uploads for %s.", channelURL)
		log.Printf("[ingest] run %s: playlist page failed: %v", res.RunID, err)
		return res, err
	}

	if len(videoIDs) == 0 {
		// Drained: future runs restart from the front and rely on the
		// processed set, not the cursor, to skip what was already seen.
		res.Drained = true
		prog.LastPageToken = ""
		if saveErr := s.progress.Save(channelID, prog); saveErr != nil {
			res.PersistErrors++
			log.Printf("[ingest] run %s: failed to persist progress: %v", res.RunID, saveErr)
		}
		res.Summary = "Channel fully processed. Pagination restarts from the beginning next run."
		if res.PersistErrors > 0 {
			res.Summary += fmt.Sprintf(" Warning: %d persistence error(s).", res.PersistErrors)
		}
		return res, nil
	}

	fresh := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		if !prog.HasProcessed(id) {
			fresh = append(fresh, id)
		}
	}

	var produced []models.MovieRecord
	if len(fresh) > 0 {
		videos, err := s.platform.VideoDetails(ctx, fresh)
		if err != nil {
			res.Summary = fmt.Sprintf("Ingestion failed: could not fetch video details for %s.", channelURL)
			log.Printf("[ingest] run %s: details fetch failed: %v", res.RunID, err)
			return res, err
		}

		byID := make(map[string]models.Video, len(videos))
		for _, v := range videos {
			byID[v.ID] = v
		}

		reservedIDs := make(map[string]bool)
		batchTitles := make(map[string]bool)

		for _, videoID := range fresh {
			// Evaluated once, whatever the outcome.
			prog.MarkProcessed(videoID)
			res.Evaluated++

			v, ok := byID[videoID]
			if !ok {
				res.Skipped++
				res.SkipReasons = append(res.SkipReasons, videoID+": no longer available")
				continue
			}

			record, skipReason := s.materialize(ctx, v, opts, reservedIDs, batchTitles)
			if skipReason != "" {
				res.Skipped++
				res.SkipReasons = append(res.SkipReasons, fmt.Sprintf("%s: %s", videoID, skipReason))
				log.Printf("[ingest] run %s: skipped %s (%s)", res.RunID, videoID, skipReason)
				continue
			}

			produced = append(produced, record)
			res.AddedTitles = append(res.AddedTitles, record.Title)
		}
	}

	if len(produced) > 0 {
		if err := s.catalog.Append(produced); err != nil {
			res.PersistErrors++
			res.AddedTitles = nil
			log.Printf("[ingest] run %s: failed to persist catalog: %v", res.RunID, err)
		}
	}

	prog.LastPageToken = nextToken
	if err := s.progress.Save(channelID, prog); err != nil {
		res.PersistErrors++
		log.Printf("[ingest] run %s: failed to persist progress: %v", res.RunID, err)
	}

	res.MorePages = nextToken != ""
	res.Summary = s.batchSummary(res)
	log.Printf("[ingest] run %s: done (%d evaluated, %d added, %d skipped)",
		res.RunID, res.Evaluated, len(res.AddedTitles), res.Skipped)
	return res, nil
}

// materialize turns one candidate video into a movie record. A non-empty skip
// reason means the candidate was evaluated but produced nothing; it stays
// marked processed either way.
func (s *Service) materialize(ctx context.Context, v models.Video, opts RunOptions, reservedIDs, batchTitles map[string]bool) (models.MovieRecord, string) {
	minutes := videoapi.ParseDurationMinutes(v.Duration)
	if minutes < opts.MinDurationMinutes {
		return models.MovieRecord{}, fmt.Sprintf("too short (%d min)", minutes)
	}

	thumbURL := v.BestThumbnailURL()
	if thumbURL == "" {
		return models.MovieRecord{}, "no thumbnail"
	}

	meta, err := s.enricher.Enrich(ctx, v.Title, v.Description)
	if err != nil {
		return models.MovieRecord{}, fmt.Sprintf("enrichment failed: %v", err)
	}

	// Duplicate-title guard: catches the same film arriving from a different
	// channel or URL. Checked before the poster download so duplicates do not
	// leave orphaned files behind.
	titleKey := strings.ToLower(meta.Title)
	if batchTitles[titleKey] || s.catalog.TitleExists(meta.Title) {
		return models.MovieRecord{}, fmt.Sprintf("duplicate title %q", meta.Title)
	}

	posterPath, err := s.posters.Download(ctx, thumbURL, meta.Title)
	if err != nil {
		return models.MovieRecord{}, fmt.Sprintf("poster download failed: %v", err)
	}

	id := s.catalog.GenerateID(meta.Title, reservedIDs)
	reservedIDs[id] = true
	batchTitles[titleKey] = true

	now := time.Now().UTC().Format(time.RFC3339)
	return models.MovieRecord{
		ID:          id,
		Title:       meta.Title,
		SeriesTitle: meta.SeriesTitle,
		PartNumber:  meta.PartNumber,
		PosterPath:  posterPath,
		SourceURL:   videoapi.WatchURL(v.ID),
		Genre:       meta.Genre,
		Category:    meta.Category,
		ReleaseDate: releaseDate(v.PublishedAt),
		Stars:       meta.Stars,
		Runtime:     fmt.Sprintf("%d min", minutes),
		Rating:      baselineRating(),
		Description: meta.Description,
		Popularity:  baselinePopularity(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, ""
}

func (s *Service) batchSummary(res RunResult) string {
	var b strings.Builder

	switch n := len(res.AddedTitles); {
	case n == 1:
		fmt.Fprintf(&b, "Added 1 new movie: %s.", res.AddedTitles[0])
	case n > 1:
		fmt.Fprintf(&b, "Added %d new movies: %s.", n, strings.Join(res.AddedTitles, ", "))
	default:
		fmt.Fprintf(&b, "No new movies added (%d evaluated, %d skipped).", res.Evaluated, res.Skipped)
	}

	if res.MorePages {
		b.WriteString(" More uploads remain.")
	} else {
		b.WriteString(" Reached the end of the playlist.")
	}

	if res.PersistErrors > 0 {
		fmt.Fprintf(&b, " Warning: %d persistence error(s).", res.PersistErrors)
	}

	return b.String()
}

func (s *Service) tryAcquire(channelURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[channelURL] {
		return false
	}
	s.running[channelURL] = true
	return true
}

func (s *Service) release(channelURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, channelURL)
}

// releaseDate trims a platform publish timestamp to its date part.
func releaseDate(publishedAt string) string {
	if len(publishedAt) >= 10 {
		return publishedAt[:10]
	}
	return publishedAt
}

// Ratings and popularity are cosmetic display values, not pipeline state.
func baselineRating() float64 {
	return float64(70+rand.Intn(21)) / 10
}

func baselinePopularity() int {
	return 50 + rand.Intn(50)
}

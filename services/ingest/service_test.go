package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelvault/models"
	"reelvault/services/catalog"
	"reelvault/services/progress"
)

type fakePage struct {
	ids  []string
	next string
}

type fakePlatform struct {
	channelID   string
	playlistID  string
	pages       map[string]fakePage
	videos      map[string]models.Video
	resolveErr  error
	playlistErr error
	pageErr     error

	mu          sync.Mutex
	detailCalls [][]string
}

func (f *fakePlatform) ResolveChannelURL(_ context.Context, _ string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.channelID, nil
}

func (f *fakePlatform) UploadsPlaylistID(_ context.Context, _ string) (string, error) {
	if f.playlistErr != nil {
		return "", f.playlistErr
	}
	return f.playlistID, nil
}

func (f *fakePlatform) PlaylistPage(_ context.Context, _, pageToken string, _ int) ([]string, string, error) {
	if f.pageErr != nil {
		return nil, "", f.pageErr
	}
	page := f.pages[pageToken]
	return page.ids, page.next, nil
}

func (f *fakePlatform) VideoDetails(_ context.Context, ids []string) ([]models.Video, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, append([]string(nil), ids...))
	f.mu.Unlock()

	var out []models.Video
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeEnricher struct {
	mu      sync.Mutex
	calls   []string
	fn      func(title string) (models.EnrichedMetadata, error)
	blockCh chan struct{}
}

func (f *fakeEnricher) Enrich(_ context.Context, title, _ string) (models.EnrichedMetadata, error) {
	f.mu.Lock()
	f.calls = append(f.calls, title)
	f.mu.Unlock()

	if f.blockCh != nil {
		<-f.blockCh
	}
	if f.fn != nil {
		return f.fn(title)
	}
	return models.EnrichedMetadata{
		Title:       title,
		SeriesTitle: title,
		PartNumber:  1,
		Description: "desc",
		Stars:       []string{"A", "B"},
		Genre:       "Drama",
		Category:    models.CategoryDrama,
	}, nil
}

func (f *fakeEnricher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePosters struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePosters) Download(_ context.Context, _, title string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "/posters/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")) + ".jpg", nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	f.messages = append(f.messages, text)
	f.mu.Unlock()
	return nil
}

func video(id, title, duration string) models.Video {
	return models.Video{
		ID:       id,
		Title:    title,
		Duration: duration,
		Thumbnails: map[string]models.Thumbnail{
			"maxres": {URL: "http://img/" + id + ".jpg", Width: 1280, Height: 720},
		},
		PublishedAt: "2024-03-01T10:00:00Z",
		Description: "raw description",
	}
}

type fixture struct {
	svc      *Service
	platform *fakePlatform
	enricher *fakeEnricher
	posters  *fakePosters
	notifier *fakeNotifier
	catalog  *catalog.Service
	progress *progress.Service
}

func newFixture(t *testing.T, platform *fakePlatform) *fixture {
	t.Helper()

	catalogSvc, err := catalog.NewService(t.TempDir())
	require.NoError(t, err)
	progressSvc, err := progress.NewService(t.TempDir())
	require.NoError(t, err)

	enricher := &fakeEnricher{}
	postersSvc := &fakePosters{}
	notifier := &fakeNotifier{}

	return &fixture{
		svc:      NewService(platform, enricher, postersSvc, catalogSvc, progressSvc, notifier),
		platform: platform,
		enricher: enricher,
		posters:  postersSvc,
		notifier: notifier,
		catalog:  catalogSvc,
		progress: progressSvc,
	}
}

func defaultOpts() RunOptions {
	return RunOptions{MinDurationMinutes: 25, BatchSize: 5}
}

func TestRunExampleScenario(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages: map[string]fakePage{
			"": {ids: []string{"V1", "V2"}},
		},
		videos: map[string]models.Video{
			"V1": video("V1", "Short Clip", "PT8M"),
			"V2": video("V2", "Test Movie", "PT42M"),
		},
	}
	fx := newFixture(t, platform)

	res, err := fx.svc.Run(context.Background(), "https://example.com/@channel", defaultOpts())
	require.NoError(t, err)

	assert.Equal(t, []string{"Test Movie"}, res.AddedTitles)
	assert.Equal(t, "Added 1 new movie: Test Movie. Reached the end of the playlist.", res.Summary)
	assert.Equal(t, 1, fx.catalog.Count())

	prog := fx.progress.Load("UCabc")
	assert.True(t, prog.HasProcessed("V1"))
	assert.True(t, prog.HasProcessed("V2"))
	assert.Empty(t, prog.LastPageToken)

	// Short clip never reached the AI or poster stages.
	assert.Equal(t, 1, fx.enricher.callCount())
	assert.Equal(t, 1, fx.posters.calls)

	require.Len(t, fx.notifier.messages, 1)
	assert.Equal(t, res.Summary, fx.notifier.messages[0])
}

func TestRunIsolatesCandidateFailures(t *testing.T) {
	pageIDs := []string{"v1", "v2", "v3", "v4", "v5"}
	videos := make(map[string]models.Video, len(pageIDs))
	for i, id := range pageIDs {
		videos[id] = video(id, fmt.Sprintf("Movie %d", i+1), "PT1H30M")
	}

	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"": {ids: pageIDs}},
		videos:     videos,
	}
	fx := newFixture(t, platform)
	fx.enricher.fn = func(title string) (models.EnrichedMetadata, error) {
		if title == "Movie 3" {
			return models.EnrichedMetadata{}, errors.New("ai exploded")
		}
		return models.EnrichedMetadata{Title: title, SeriesTitle: title, PartNumber: 1, Category: models.CategoryDrama}, nil
	}

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err, "one bad candidate must not fail the run")

	assert.Len(t, res.AddedTitles, 4)
	assert.Equal(t, 5, res.Evaluated)
	assert.Equal(t, 1, res.Skipped)

	prog := fx.progress.Load("UCabc")
	for _, id := range pageIDs {
		assert.True(t, prog.HasProcessed(id), "candidate %s must be marked processed", id)
	}
	assert.Equal(t, 4, fx.catalog.Count())
}

func TestRunNeverReevaluatesProcessedVideos(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"": {ids: []string{"v1", "v2"}}},
		videos: map[string]models.Video{
			"v1": video("v1", "Seen Before", "PT1H30M"),
			"v2": video("v2", "Brand New", "PT1H30M"),
		},
	}
	fx := newFixture(t, platform)

	seeded := fx.progress.Load("UCabc")
	seeded.MarkProcessed("v1")
	require.NoError(t, fx.progress.Save("UCabc", seeded))

	_, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)

	// The details batch only ever asked about the unseen video.
	require.Len(t, platform.detailCalls, 1)
	assert.Equal(t, []string{"v2"}, platform.detailCalls[0])
	assert.Equal(t, []string{"Brand New"}, fx.enricher.calls)
}

func TestRunDrainedResetsCursor(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"stale-token": {}},
	}
	fx := newFixture(t, platform)

	seeded := fx.progress.Load("UCabc")
	seeded.LastPageToken = "stale-token"
	seeded.MarkProcessed("old")
	require.NoError(t, fx.progress.Save("UCabc", seeded))

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)
	assert.True(t, res.Drained)
	assert.Contains(t, res.Summary, "fully processed")

	prog := fx.progress.Load("UCabc")
	assert.Empty(t, prog.LastPageToken, "drained channel must restart from the beginning")
	assert.True(t, prog.HasProcessed("old"), "processed set must survive the reset")
}

func TestRunCursorAdvances(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages: map[string]fakePage{
			"": {ids: []string{"v1"}, next: "page2"},
		},
		videos: map[string]models.Video{
			"v1": video("v1", "A Film", "PT1H30M"),
		},
	}
	fx := newFixture(t, platform)

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)
	assert.True(t, res.MorePages)
	assert.Contains(t, res.Summary, "More uploads remain.")
	assert.Equal(t, "page2", fx.progress.Load("UCabc").LastPageToken)
}

func TestRunResolutionFailureLeavesStateUntouched(t *testing.T) {
	platform := &fakePlatform{resolveErr: errors.New("not found")}
	fx := newFixture(t, platform)

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.Error(t, err)
	assert.Contains(t, res.Summary, "could not resolve")

	assert.Equal(t, 0, fx.catalog.Count())
	require.Len(t, fx.notifier.messages, 1, "failed runs still report exactly once")
}

func TestRunDuplicateTitleSkipped(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCother",
		playlistID: "UUother",
		pages:      map[string]fakePage{"": {ids: []string{"vX"}}},
		videos: map[string]models.Video{
			"vX": video("vX", "Test Movie", "PT1H30M"),
		},
	}
	fx := newFixture(t, platform)
	require.NoError(t, fx.catalog.Append([]models.MovieRecord{{
		ID:       "test-movie",
		Title:    "TEST MOVIE",
		Category: models.CategoryDrama,
	}}))

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)

	assert.Empty(t, res.AddedTitles)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, fx.posters.calls, "duplicates are dropped before the poster download")
	assert.True(t, fx.progress.Load("UCother").HasProcessed("vX"))
	assert.Equal(t, 1, fx.catalog.Count())
}

func TestRunDuplicateTitleWithinBatch(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"": {ids: []string{"v1", "v2"}}},
		videos: map[string]models.Video{
			"v1": video("v1", "Same Film", "PT1H30M"),
			"v2": video("v2", "Same Film", "PT1H30M"),
		},
	}
	fx := newFixture(t, platform)

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, []string{"Same Film"}, res.AddedTitles)
	assert.Equal(t, 1, fx.catalog.Count())
}

func TestRunMissingThumbnailSkips(t *testing.T) {
	v := video("v1", "No Art", "PT1H30M")
	v.Thumbnails = nil

	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"": {ids: []string{"v1"}}},
		videos:     map[string]models.Video{"v1": v},
	}
	fx := newFixture(t, platform)

	res, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	require.NoError(t, err)
	assert.Empty(t, res.AddedTitles)
	assert.Equal(t, 0, fx.enricher.callCount(), "a poster is mandatory; no AI call without one")
	assert.True(t, fx.progress.Load("UCabc").HasProcessed("v1"))
}

func TestRunSingleFlightPerChannel(t *testing.T) {
	platform := &fakePlatform{
		channelID:  "UCabc",
		playlistID: "UUabc",
		pages:      map[string]fakePage{"": {ids: []string{"v1"}}},
		videos: map[string]models.Video{
			"v1": video("v1", "Blocking Film", "PT1H30M"),
		},
	}
	fx := newFixture(t, platform)
	fx.enricher.blockCh = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		fx.svc.Run(context.Background(), "url", defaultOpts())
	}()

	// Wait until the first run is inside the enrichment call.
	for fx.enricher.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := fx.svc.Run(context.Background(), "url", defaultOpts())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, fx.svc.IsRunning("url"))

	close(fx.enricher.blockCh)
	<-done
	assert.False(t, fx.svc.IsRunning("url"))
}

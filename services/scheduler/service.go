package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"reelvault/config"
	"reelvault/services/ingest"
)

// ErrNoChannelsConfigured is returned by manual triggers when the monitored
// channel list is empty.
var ErrNoChannelsConfigured = errors.New("no channels configured")

// checkInterval is how often the loop wakes up to see whether a run is due.
// The actual run cadence comes from settings, so interval changes apply
// without a restart.
const checkInterval = time.Minute

// Service drives scheduled ingestion runs.
type Service struct {
	configManager *config.Manager
	ingestService *ingest.Service

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastRun   time.Time
	rotateIdx int
}

// NewService creates the ingestion scheduler.
func NewService(configManager *config.Manager, ingestService *ingest.Service) *Service {
	return &Service{
		configManager: configManager,
		ingestService: ingestService,
	}
}

// Start begins the scheduler background loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop()

	log.Println("[scheduler] ingestion scheduler started")
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] ingestion scheduler stopped")
	case <-ctx.Done():
		log.Println("[scheduler] ingestion scheduler stopped (timeout)")
	}

	return nil
}

func (s *Service) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one scheduled ingestion when automation is enabled, at least one
// channel is configured, and the configured interval has elapsed. Disabled
// automation and an empty channel list are not errors; the tick just returns.
func (s *Service) tick() {
	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] failed to load settings: %v", err)
		return
	}

	if !settings.AutoUpload.Enabled || len(settings.AutoUpload.ChannelURLs) == 0 {
		return
	}

	interval := time.Duration(settings.AutoUpload.IntervalMinutes) * time.Minute
	if !s.lastRun.IsZero() && time.Since(s.lastRun) < interval {
		return
	}
	s.lastRun = time.Now()

	s.mu.Lock()
	channelURL := s.nextChannel(settings.AutoUpload.ChannelURLs)
	s.mu.Unlock()

	opts := ingest.RunOptions{
		MinDurationMinutes: settings.AutoUpload.MinDurationMinutes,
		BatchSize:          settings.AutoUpload.BatchSize,
	}

	if _, err := s.ingestService.Run(s.ctx, channelURL, opts); err != nil {
		if errors.Is(err, ingest.ErrAlreadyRunning) {
			log.Printf("[scheduler] skipping %s: run already in flight", channelURL)
			return
		}
		log.Printf("[scheduler] run for %s failed: %v", channelURL, err)
	}
}

// nextChannel rotates round-robin over the configured list so every channel
// gets a turn across ticks. The index is in-memory only and restarts at the
// first channel after a process restart.
func (s *Service) nextChannel(channels []string) string {
	url := channels[s.rotateIdx%len(channels)]
	s.rotateIdx++
	return url
}

// TriggerNow starts a manual ingestion run. With an empty channelURL the next
// channel in rotation is used. The chosen channel is returned; if a run for
// it is already in flight, ingest.ErrAlreadyRunning is returned instead of
// starting a second one.
func (s *Service) TriggerNow(channelURL string) (string, error) {
	settings, err := s.configManager.Load()
	if err != nil {
		return "", err
	}

	if channelURL == "" {
		s.mu.Lock()
		if len(settings.AutoUpload.ChannelURLs) == 0 {
			s.mu.Unlock()
			return "", ErrNoChannelsConfigured
		}
		channelURL = s.nextChannel(settings.AutoUpload.ChannelURLs)
		s.mu.Unlock()
	}

	if s.ingestService.IsRunning(channelURL) {
		return channelURL, ingest.ErrAlreadyRunning
	}

	opts := ingest.RunOptions{
		MinDurationMinutes: settings.AutoUpload.MinDurationMinutes,
		BatchSize:          settings.AutoUpload.BatchSize,
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.ingestService.Run(ctx, channelURL, opts); err != nil && !errors.Is(err, ingest.ErrAlreadyRunning) {
			log.Printf("[scheduler] manual run for %s failed: %v", channelURL, err)
		}
	}()

	return channelURL, nil
}

package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/article"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/wiki"
)

var (
	ErrScrapeRunning    = errors.New("scrape already running")
	ErrScrapeNotRunning = errors.New("scrape not running")
)

// Sink receives each scraped record as it is appended.
type Sink interface {
	Send(ctx context.Context, key, value []byte) error
}

// Status is a snapshot of the current or most recent run.
type Status struct {
	RunID        string `json:"run_id"`
	Running      bool   `json:"running"`
	TitlesFound  int    `json:"titles_found"`
	Scraped      int    `json:"scraped"`
	Skipped      int    `json:"skipped"`
	ListComplete bool   `json:"list_complete"`
	ListError    string `json:"list_error,omitempty"`
	TotalWords   int    `json:"total_words"`
}

type promMetrics struct {
	handler  http.Handler
	progress prometheus.Gauge
	running  prometheus.Gauge
	scraped  prometheus.Gauge
}

func newPromMetrics() *promMetrics {
	progress := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scraper_progress",
		Help: "Fraction of listed titles processed",
	})
	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scraper_running",
		Help: "Scraper running state (1 running, 0 idle)",
	})
	scraped := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scraper_pages_scraped",
		Help: "Pages scraped with non-empty content",
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		progress,
		running,
		scraped,
	)

	return &promMetrics{
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		progress: progress,
		running:  running,
		scraped:  scraped,
	}
}

func (m *promMetrics) update(status Status) {
	if status.TitlesFound > 0 {
		m.progress.Set(float64(status.Scraped+status.Skipped) / float64(status.TitlesFound))
	} else {
		m.progress.Set(0)
	}
	if status.Running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
	m.scraped.Set(float64(status.Scraped))
}

// Service drives a full scrape: list every main-namespace title, fetch each
// page's markup sequentially with a politeness delay, checkpoint progress
// periodically, and write the final JSON array once at the end.
type Service struct {
	cfg  config.Config
	wiki *wiki.Client
	sink Sink
	prom *promMetrics

	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	cancel  context.CancelFunc
	status  Status
}

func NewService(cfg config.Config, client *wiki.Client, sink Sink) *Service {
	svc := &Service{
		cfg:  cfg,
		wiki: client,
		sink: sink,
		prom: newPromMetrics(),
	}
	svc.cond = sync.NewCond(&svc.mu)
	svc.prom.update(svc.status)
	return svc
}

// Start launches a scrape in the background. The run gets its own context
// so it outlives the caller; use Pause or Abort to stop it.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScrapeRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.beginLocked(cancel)
	s.mu.Unlock()

	go func() {
		if err := s.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("scrape failed: %v", err)
		}
	}()
	return nil
}

// RunOnce performs a full scrape synchronously. An interrupted run returns
// the context error and leaves the checkpoint file in place.
func (s *Service) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScrapeRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.beginLocked(cancel)
	s.mu.Unlock()

	return s.run(runCtx)
}

func (s *Service) beginLocked(cancel context.CancelFunc) {
	s.running = true
	s.cancel = cancel
	s.status = Status{RunID: uuid.NewString(), Running: true}
}

// Pause cancels the current run and waits for it to stop. The checkpoint
// file survives as the recovery artifact.
func (s *Service) Pause() error {
	return s.stop("pausing")
}

// Abort cancels the current run and waits for it to stop.
func (s *Service) Abort() error {
	return s.stop("aborting")
}

func (s *Service) stop(verb string) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrScrapeNotRunning
	}
	cancel := s.cancel
	s.mu.Unlock()

	log.Printf("%s scrape", verb)
	cancel()

	s.mu.Lock()
	for s.running {
		s.cond.Wait()
	}
	s.mu.Unlock()
	return nil
}

// Wait blocks until the current run finishes.
func (s *Service) Wait() {
	s.mu.Lock()
	for s.running {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) MetricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.prom.update(s.Status())
		s.prom.handler.ServeHTTP(w, r)
	})
}

func (s *Service) run(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.status.Running = false
		s.cancel = nil
		s.prom.update(s.status)
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	log.Printf("run %s: listing pages from %s", s.Status().RunID, s.cfg.BaseURL)
	list := s.wiki.ListTitles(ctx)

	s.mu.Lock()
	s.status.TitlesFound = len(list.Titles)
	s.status.ListComplete = list.Complete
	if list.Err != nil {
		s.status.ListError = list.Err.Error()
	}
	s.mu.Unlock()

	if list.Err != nil {
		if errors.Is(list.Err, context.Canceled) {
			return list.Err
		}
		log.Printf("page listing incomplete, continuing with %d titles: %v", len(list.Titles), list.Err)
	} else {
		log.Printf("found %d pages", len(list.Titles))
	}

	checkpoint := article.NewCheckpoint(s.cfg.OutputFile)
	records := make([]article.Record, 0, len(list.Titles))

	for i, title := range list.Titles {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.scrapeOne(ctx, title, &records)

		if (i+1)%s.cfg.CheckpointEvery == 0 {
			if err := checkpoint.Write(records); err != nil {
				log.Printf("checkpoint write failed: %v", err)
			} else {
				log.Printf("saved progress: %d pages processed", i+1)
			}
		}
		if !sleepWithContext(ctx, s.cfg.Delay) {
			return context.Canceled
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := article.Save(s.cfg.OutputFile, records); err != nil {
		return err
	}
	if err := checkpoint.Clear(); err != nil {
		log.Printf("checkpoint cleanup failed: %v", err)
	}

	status := s.Status()
	log.Printf("run %s complete: scraped %d pages, skipped %d, %d total words, output %s",
		status.RunID, status.Scraped, status.Skipped, status.TotalWords, s.cfg.OutputFile)
	return nil
}

func (s *Service) scrapeOne(ctx context.Context, title string, records *[]article.Record) {
	raw, ok, err := s.wiki.PageContent(ctx, title)
	if err != nil {
		log.Printf("fetch failed for %q: %v", title, err)
		s.markSkipped()
		return
	}
	content := strings.TrimSpace(raw)
	if !ok || content == "" {
		s.markSkipped()
		return
	}

	rec := article.Record{
		Title:      title,
		URL:        article.PageURL(s.cfg.BaseURL, title),
		Content:    content,
		RawContent: raw,
		WordCount:  article.WordCount(content),
	}
	*records = append(*records, rec)
	s.publish(ctx, rec)

	s.mu.Lock()
	s.status.Scraped++
	s.status.TotalWords += rec.WordCount
	s.mu.Unlock()
}

func (s *Service) markSkipped() {
	s.mu.Lock()
	s.status.Skipped++
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, rec article.Record) {
	if s.sink == nil {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("encode record %q: %v", rec.Title, err)
		return
	}
	if err := s.sink.Send(ctx, []byte(rec.Title), data); err != nil {
		log.Printf("sink error for %q: %v", rec.Title, err)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

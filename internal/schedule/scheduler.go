package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mbrandt/chorus/internal/catalog"
	"github.com/mbrandt/chorus/internal/enrich"
	"github.com/mbrandt/chorus/internal/pipeline"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Search history rows older than this are pruned by the housekeeping job.
const searchHistoryRetention = 90 * 24 * time.Hour

// Scheduler drives the recurring ingestion and housekeeping jobs from
// cron expressions held in settings. An empty expression disables its
// job; a trigger that fires while the previous run is still going is
// skipped, not queued.
type Scheduler struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	cron     *cron.Cron
	jobs     []*job
}

// Config holds scheduler dependencies
type Config struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
}

type job struct {
	name    string
	expr    string
	running atomic.Bool
	fn      func(ctx context.Context) error
}

// New creates a Scheduler
func New(cfg *Config) *Scheduler {
	return &Scheduler{
		store:    cfg.Store,
		pipeline: cfg.Pipeline,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the enabled jobs and starts the cron loop. The cron
// expressions are read once at startup; the rest of the settings are
// re-read on every trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	cfg, err := settings.Load(s.store)
	if err != nil {
		return err
	}

	s.jobs = []*job{
		{name: "library-insert", expr: cfg.LibraryInsertCron, fn: s.scanByType(store.LibraryTypeInbound)},
		{name: "library-process", expr: cfg.LibraryProcessCron, fn: s.scanByType(store.LibraryTypeStaging)},
		{name: "artist-housekeeping", expr: cfg.ArtistHousekeepingCron, fn: s.housekeepStorage},
		{name: "musicbrainz-update", expr: cfg.MusicBrainzUpdateCron, fn: s.enrichArtists},
		{name: "search-housekeeping", expr: cfg.ArtistSearchEngineHousekeepingCron, fn: s.pruneSearchHistory},
	}

	for _, j := range s.jobs {
		if j.expr == "" {
			util.InfoLog("Job %s disabled (no cron expression)", j.name)
			continue
		}
		j := j
		_, err := s.cron.AddFunc(j.expr, func() { s.runJob(ctx, j) })
		if err != nil {
			return fmt.Errorf("invalid cron expression for job %s: %w", j.name, err)
		}
		util.InfoLog("Job %s scheduled (%s)", j.name, j.expr)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Enabled returns the names of the registered jobs
func (s *Scheduler) Enabled() []string {
	var names []string
	for _, j := range s.jobs {
		if j.expr != "" {
			names = append(names, j.name)
		}
	}
	return names
}

// runJob executes a job unless its previous run is still in flight
func (s *Scheduler) runJob(ctx context.Context, j *job) {
	if !j.running.CompareAndSwap(false, true) {
		util.WarnLog("Job %s still running, skipping this trigger", j.name)
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	util.DebugLog("Job %s starting", j.name)

	if err := j.fn(ctx); err != nil {
		util.ErrorLog("Job %s failed: %v", j.name, err)
		return
	}
	util.DebugLog("Job %s finished in %s", j.name, time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) scanByType(t store.LibraryType) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		lib, err := s.store.GetLibraryByType(t)
		if err != nil {
			return err
		}
		if lib == nil {
			util.DebugLog("No %s library configured, nothing to scan", t)
			return nil
		}
		_, err = s.pipeline.ScanLibrary(ctx, lib.ID)
		return err
	}
}

// housekeepStorage rescans the storage library, then prunes albums
// that lost all their songs and artists that lost all their albums
func (s *Scheduler) housekeepStorage(ctx context.Context) error {
	lib, err := s.store.GetLibraryByType(store.LibraryTypeStorage)
	if err != nil {
		return err
	}
	if lib == nil {
		util.DebugLog("No storage library configured, nothing to housekeep")
		return nil
	}
	if _, err := s.pipeline.ScanLibrary(ctx, lib.ID); err != nil {
		return err
	}

	cfg, err := settings.Load(s.store)
	if err != nil {
		return err
	}
	writer := catalog.New(&catalog.Config{Store: s.store, Settings: cfg})
	_, err = writer.Housekeep(lib.ID)
	return err
}

func (s *Scheduler) enrichArtists(ctx context.Context) error {
	cfg, err := settings.Load(s.store)
	if err != nil {
		return err
	}
	enricher := enrich.New(&enrich.Config{Store: s.store, Settings: cfg})
	_, err = enricher.EnrichArtists(ctx)
	return err
}

func (s *Scheduler) pruneSearchHistory(context.Context) error {
	cutoff := time.Now().Add(-searchHistoryRetention)

	n, err := s.store.PruneSearchHistory(cutoff)
	if err != nil {
		return err
	}
	cached, err := enrich.PruneSearchCache(s.store.DB(), cutoff)
	if err != nil {
		return err
	}
	if n > 0 || cached > 0 {
		util.InfoLog("Pruned %d search history rows, %d cached lookups", n, cached)
	}
	return nil
}

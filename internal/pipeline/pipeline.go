package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/mbrandt/chorus/internal/catalog"
	"github.com/mbrandt/chorus/internal/contrib"
	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/report"
	"github.com/mbrandt/chorus/internal/resolve"
	"github.com/mbrandt/chorus/internal/scan"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/store"
	"github.com/mbrandt/chorus/internal/util"
)

// Pipeline runs the full ingestion pass for a library: walk the tree,
// extract and normalize tags, resolve identities and commit units to
// the catalog. Settings are read once per run; metadata extraction is
// concurrent, while commits for the same artist serialize.
type Pipeline struct {
	store       *store.Store
	fs          afero.Fs
	concurrency int
	logger      *report.EventLogger

	guard       *libraryGuard
	artistLocks *keyedLocks
}

// Config holds pipeline configuration
type Config struct {
	Store       *store.Store
	Fs          afero.Fs
	Concurrency int
	Logger      *report.EventLogger
}

// New creates a Pipeline
func New(cfg *Config) *Pipeline {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Pipeline{
		store:       cfg.Store,
		fs:          cfg.Fs,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		guard:       newLibraryGuard(),
		artistLocks: newKeyedLocks(),
	}
}

// Result represents the outcome of one library scan
type Result struct {
	UnitsFound     int
	UnitsProcessed int
	UnitsSkipped   int
	Duplicates     int
	Conflicts      int

	ArtistsCreated int
	AlbumsCreated  int
	SongsCreated   int
	SongsUpdated   int
	SongsUnchanged int

	Duration time.Duration
	Errors   []error
}

// extraction carries one scanned directory through the metadata stage
type extraction struct {
	scanned *scan.Unit
	unit    *meta.AlbumUnit
	err     error
}

// ScanLibrary ingests one library. A scan history row is appended even
// when the run fails partway; the library scan stamp only moves on
// success.
func (p *Pipeline) ScanLibrary(ctx context.Context, libraryID int64) (*Result, error) {
	return p.scan(ctx, libraryID, "", nil, nil)
}

// RescanArtist rescans a single artist's directory. The scan history
// row records which artist the run was scoped to.
func (p *Pipeline) RescanArtist(ctx context.Context, artistID int64) (*Result, error) {
	artist, err := p.store.GetArtistByID(artistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %d: %w", artistID, util.ErrNotFound)
	}
	return p.scan(ctx, artist.LibraryID, artist.Directory, &artistID, nil)
}

// RescanAlbum rescans a single album directory
func (p *Pipeline) RescanAlbum(ctx context.Context, albumID int64) (*Result, error) {
	album, err := p.store.GetAlbumByID(albumID)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, fmt.Errorf("album %d: %w", albumID, util.ErrNotFound)
	}
	artist, err := p.store.GetArtistByID(album.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %d: %w", album.ArtistID, util.ErrNotFound)
	}
	return p.scan(ctx, artist.LibraryID, filepath.Join(artist.Directory, album.Directory), nil, &albumID)
}

// scan runs one ingestion pass. sub scopes the walk to a directory
// relative to the library root; empty means the whole library.
func (p *Pipeline) scan(ctx context.Context, libraryID int64, sub string, forArtistID, forAlbumID *int64) (*Result, error) {
	lib, err := p.store.GetLibraryByID(libraryID)
	if err != nil {
		return nil, err
	}
	if lib == nil {
		return nil, fmt.Errorf("library %d: %w", libraryID, util.ErrNotFound)
	}

	if !p.guard.acquire(lib.ID) {
		return nil, fmt.Errorf("library %s: %w", lib.Name, util.ErrScanInProgress)
	}
	defer p.guard.release(lib.ID)

	if lib.IsLocked {
		return nil, fmt.Errorf("library %s is locked: %w", lib.Name, util.ErrScanInProgress)
	}
	if err := p.store.SetLibraryLocked(lib.ID, true); err != nil {
		return nil, err
	}
	defer func() {
		if err := p.store.SetLibraryLocked(lib.ID, false); err != nil {
			util.WarnLog("Failed to unlock library %s: %v", lib.Name, err)
		}
	}()

	cfg, err := settings.Load(p.store)
	if err != nil {
		return nil, err
	}

	root := lib.Path
	if sub != "" {
		root = filepath.Join(lib.Path, sub)
	}

	start := time.Now()
	util.InfoLog("Scanning library %s (%s)", lib.Name, root)

	result, runErr := p.run(ctx, lib, cfg, root)
	result.Duration = time.Since(start)

	history := &store.ScanHistory{
		ForArtistID:       forArtistID,
		ForAlbumID:        forAlbumID,
		FoundArtistsCount: result.ArtistsCreated,
		FoundAlbumsCount:  result.AlbumsCreated,
		FoundSongsCount:   result.SongsCreated,
		DurationMs:        result.Duration.Milliseconds(),
		Error:             historyError(runErr, result.Errors),
	}
	writer := catalog.New(&catalog.Config{Store: p.store, Settings: cfg})
	if err := writer.FinishScan(lib.ID, history); err != nil {
		util.ErrorLog("Failed to record scan history: %v", err)
		result.Errors = append(result.Errors, err)
	}

	if runErr != nil {
		return result, runErr
	}

	util.SuccessLog("Scan of %s complete: %d units, %d songs added, %d updated, %d duplicates, %d conflicts in %s",
		lib.Name, result.UnitsProcessed, result.SongsCreated, result.SongsUpdated,
		result.Duplicates, result.Conflicts, result.Duration.Round(time.Millisecond))
	return result, nil
}

// ScanAll scans every scannable library in sort order
func (p *Pipeline) ScanAll(ctx context.Context) ([]*Result, error) {
	libraries, err := p.store.ListLibraries()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, lib := range libraries {
		if lib.Type == store.LibraryTypeUserImages {
			continue
		}
		result, err := p.ScanLibrary(ctx, lib.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return results, err
			}
			util.ErrorLog("Scan of library %s failed: %v", lib.Name, err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Pipeline) run(ctx context.Context, lib *store.Library, cfg *settings.Config, root string) (*Result, error) {
	result := &Result{}

	scanner := scan.New(&scan.Config{Fs: p.fs, Settings: cfg})
	limit := 0
	if lib.Type == store.LibraryTypeStaging {
		limit = cfg.StagingDirectoryScanLimit
	}

	scanRes, err := scanner.Scan(ctx, root, limit)
	if err != nil {
		return result, err
	}
	result.UnitsFound = len(scanRes.Units)
	result.UnitsSkipped += scanRes.DirsSkipped
	result.Errors = append(result.Errors, scanRes.Errors...)
	if len(scanRes.Errors) > 0 && !cfg.ContinueOnDirectoryErrors {
		return result, fmt.Errorf("aborting scan after %d directory errors", len(scanRes.Errors))
	}

	extractor := meta.NewExtractor(&meta.ExtractorConfig{Fs: p.fs})
	magic := meta.NewMagic(cfg)
	resolver := resolve.New(&resolve.Config{Store: p.store, Settings: cfg})
	assigner := contrib.New(cfg)
	writer := catalog.New(&catalog.Config{Store: p.store, Settings: cfg})

	processed := 0
	for _, batch := range scanRes.Batches(cfg.BatchSize) {
		extractions := p.extractBatch(ctx, extractor, magic, batch)

		for _, ex := range extractions {
			// Cancellation takes effect between units, never inside one.
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if cfg.MaximumProcessingCount > 0 && processed >= cfg.MaximumProcessingCount {
				util.WarnLog("Processing cap of %d units reached, stopping", cfg.MaximumProcessingCount)
				return result, nil
			}

			if ex.err != nil {
				if errors.Is(ex.err, util.ErrNotFound) {
					result.UnitsSkipped++
					continue
				}
				result.Errors = append(result.Errors, ex.err)
				p.logger.LogError(report.EventUnit, ex.scanned.Path, ex.err)
				if !cfg.ContinueOnDirectoryErrors {
					return result, ex.err
				}
				continue
			}

			processed++
			if err := p.processUnit(lib, cfg, resolver, assigner, writer, ex.unit, result); err != nil {
				result.Errors = append(result.Errors, err)
				if !cfg.ContinueOnDirectoryErrors {
					return result, err
				}
			}
		}
	}

	return result, nil
}

// extractBatch reads tags and hashes files for a batch of directories
// concurrently. Results come back in batch order.
func (p *Pipeline) extractBatch(ctx context.Context, extractor *meta.Extractor, magic *meta.Magic, batch []*scan.Unit) []*extraction {
	extractions := make([]*extraction, len(batch))

	workers := pool.New().WithMaxGoroutines(p.concurrency)
	for i, scanned := range batch {
		workers.Go(func() {
			ex := &extraction{scanned: scanned}
			ex.unit, ex.err = extractor.ExtractDir(ctx, scanned.Path, scanned.Files)
			if ex.err == nil {
				magic.Apply(ex.unit)
				p.logger.LogUnit("", scanned.Path, len(ex.unit.Songs))
			}
			extractions[i] = ex
		})
	}
	workers.Wait()

	return extractions
}

// processUnit resolves and commits one album directory. The artist lock
// keeps concurrent scans from interleaving commits for the same artist.
func (p *Pipeline) processUnit(lib *store.Library, cfg *settings.Config, resolver *resolve.Resolver, assigner *contrib.Assigner, writer *catalog.Writer, unit *meta.AlbumUnit, result *Result) error {
	unlock := p.artistLocks.lock(unit.ArtistNameNormalized)
	defer unlock()

	start := time.Now()
	resolved, err := resolver.Resolve(lib.ID, unit)
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrDuplicateAlbum):
			result.Duplicates++
			p.logger.LogDuplicate(unit.Directory, unit.ArtistName, unit.AlbumName)
			marked, markErr := util.RetryWithBackoff(nil, func() (string, error) {
				return resolve.MarkDuplicate(p.fs, unit.Directory, cfg.DuplicateAlbumPrefix)
			}, "mark duplicate directory")
			if markErr != nil {
				util.WarnLog("Failed to mark duplicate %s: %v", unit.Directory, markErr)
			} else {
				util.WarnLog("Duplicate album %s by %s, marked %s", unit.AlbumName, unit.ArtistName, marked)
			}
			return nil
		case errors.Is(err, resolve.ErrAmbiguousArtist):
			result.Conflicts++
			p.logger.LogConflict(unit.Directory, unit.ArtistName, err.Error())
			marked, markErr := util.RetryWithBackoff(nil, func() (string, error) {
				return resolve.MarkSkipped(p.fs, unit.Directory, cfg.SkippedDirectoryPrefix)
			}, "mark conflict directory")
			if markErr != nil {
				util.WarnLog("Failed to mark conflict %s: %v", unit.Directory, markErr)
			} else {
				util.WarnLog("Identity conflict in %s, marked %s: %v", unit.Directory, marked, err)
			}
			return nil
		}
		return fmt.Errorf("failed to resolve %s: %w", unit.Directory, err)
	}

	p.logger.LogResolve(unit.Directory, unit.ArtistName, unit.AlbumName, resolveAction(resolved))

	commit, err := writer.CommitUnit(lib.ID, resolved, assigner.Assign(resolved))
	if err != nil {
		return err
	}

	result.UnitsProcessed++
	if commit.ArtistCreated {
		result.ArtistsCreated++
	}
	if commit.AlbumCreated {
		result.AlbumsCreated++
	}
	result.SongsCreated += commit.SongsCreated
	result.SongsUpdated += commit.SongsUpdated
	result.SongsUnchanged += commit.SongsUnchanged

	p.logger.LogCommit(unit.Directory, unit.ArtistName, unit.AlbumName,
		commit.SongsCreated+commit.SongsUpdated, time.Since(start))
	return nil
}

func resolveAction(r *resolve.ResolvedUnit) string {
	switch {
	case r.ArtistCreated:
		return "create-artist"
	case r.AlbumCreated:
		return "create-album"
	case r.Changed():
		return "update"
	}
	return "unchanged"
}

func historyError(runErr error, errs []error) string {
	if runErr != nil {
		return runErr.Error()
	}
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, 3)
	for i, err := range errs {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(errs)-i))
			break
		}
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

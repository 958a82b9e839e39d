package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"

	"github.com/mbrandt/chorus/internal/meta"
	"github.com/mbrandt/chorus/internal/settings"
	"github.com/mbrandt/chorus/internal/util"
)

// Unit is a candidate album directory: the deepest directory holding
// audio files, with disc subfolders folded into their parent
type Unit struct {
	Path    string
	ModTime time.Time
	Files   []string
}

// Scanner walks a library root and yields candidate album directories.
// The traversal is read-only; marking directories as skipped or
// duplicate is the resolver's business.
type Scanner struct {
	fs  afero.Fs
	cfg *settings.Config
}

// Config holds scanner configuration
type Config struct {
	Fs       afero.Fs
	Settings *settings.Config
}

// New creates a Scanner
func New(cfg *Config) *Scanner {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Scanner{fs: fs, cfg: cfg.Settings}
}

// Result represents one traversal
type Result struct {
	Units        []*Unit
	DirsExamined int
	DirsSkipped  int
	Errors       []error
}

var discFolderRe = regexp.MustCompile(`(?i)^(?:disc|disk|cd)\s*\d+$`)

// Scan walks root and collects up to limit candidate units in
// deterministic path order (limit 0 = unlimited). Directories carrying
// the skip or duplicate prefix are pruned, unreadable directories are
// recorded as per-unit errors without aborting the walk.
func (s *Scanner) Scan(ctx context.Context, root string, limit int) (*Result, error) {
	util.InfoLog("Scanning %s", root)

	result := &Result{}
	byDir := map[string]*Unit{}

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("dirs"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	walkErr := afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			return nil
		}

		if info.IsDir() {
			if path != root && s.hasMarkerPrefix(filepath.Base(path)) {
				util.DebugLog("Skipping marked directory: %s", path)
				result.DirsSkipped++
				return filepath.SkipDir
			}
			result.DirsExamined++
			if bar != nil {
				bar.Add(1)
			}
			return nil
		}

		if !meta.IsAudioFile(path) {
			return nil
		}

		dir := albumDirFor(path)
		unit, ok := byDir[dir]
		if !ok {
			unit = &Unit{Path: dir}
			if dirInfo, statErr := s.fs.Stat(dir); statErr == nil {
				unit.ModTime = dirInfo.ModTime()
			}
			byDir[dir] = unit
		}
		unit.Files = append(unit.Files, path)
		return nil
	})
	if walkErr != nil {
		if walkErr == context.Canceled || walkErr == context.DeadlineExceeded {
			return result, walkErr
		}
		return result, fmt.Errorf("walk failed: %w", walkErr)
	}

	result.Units = make([]*Unit, 0, len(byDir))
	for _, unit := range byDir {
		sort.Strings(unit.Files)
		result.Units = append(result.Units, unit)
	}
	sort.Slice(result.Units, func(i, j int) bool {
		return result.Units[i].Path < result.Units[j].Path
	})

	if limit > 0 && len(result.Units) > limit {
		result.Units = result.Units[:limit]
	}

	util.InfoLog("Found %d candidate directories (%d examined, %d skipped)",
		len(result.Units), result.DirsExamined, result.DirsSkipped)

	return result, nil
}

// Batches splits the units into batches of the configured size, clamped
// by the settings layer to [250, 1000]
func (r *Result) Batches(size int) [][]*Unit {
	if size <= 0 {
		size = settings.MinBatchSize
	}
	var batches [][]*Unit
	for start := 0; start < len(r.Units); start += size {
		end := start + size
		if end > len(r.Units) {
			end = len(r.Units)
		}
		batches = append(batches, r.Units[start:end])
	}
	return batches
}

func (s *Scanner) hasMarkerPrefix(base string) bool {
	if s.cfg == nil {
		return false
	}
	if p := s.cfg.SkippedDirectoryPrefix; p != "" && strings.HasPrefix(base, p) {
		return true
	}
	if p := s.cfg.DuplicateAlbumPrefix; p != "" && strings.HasPrefix(base, p) {
		return true
	}
	return false
}

// albumDirFor maps a file path to its candidate album directory,
// folding "Disc N" folders into their parent
func albumDirFor(path string) string {
	dir := filepath.Dir(path)
	if discFolderRe.MatchString(filepath.Base(dir)) {
		return filepath.Dir(dir)
	}
	return dir
}

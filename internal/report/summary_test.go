package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbrandt/chorus/internal/store"
)

func newSummaryStore(t *testing.T) (*store.Store, *store.Library) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	lib := &store.Library{Name: "storage", Path: "/music", Type: store.LibraryTypeStorage}
	if err := s.InsertLibrary(s.DB(), lib); err != nil {
		t.Fatalf("InsertLibrary() error = %v", err)
	}
	if err := s.UpdateLibraryCounts(s.DB(), lib.ID, 2, 3, 30); err != nil {
		t.Fatalf("UpdateLibraryCounts() error = %v", err)
	}
	return s, lib
}

func TestGenerateSummaryReport(t *testing.T) {
	s, lib := newSummaryStore(t)

	if err := s.TouchLibraryScanned(s.DB(), lib.ID, time.Now()); err != nil {
		t.Fatalf("TouchLibraryScanned() error = %v", err)
	}
	history := []*store.ScanHistory{
		{LibraryID: lib.ID, FoundArtistsCount: 2, FoundAlbumsCount: 3, FoundSongsCount: 30, DurationMs: 1200},
		{LibraryID: lib.ID, Error: "walk failed"},
	}
	for _, h := range history {
		if err := s.AppendScanHistory(s.DB(), h); err != nil {
			t.Fatalf("AppendScanHistory() error = %v", err)
		}
	}
	if err := s.AppendSearchHistory(s.DB(), &store.SearchHistory{
		Query: "Pink Floyd", Provider: "musicbrainz", FoundArtistsCount: 1,
	}); err != nil {
		t.Fatalf("AppendSearchHistory() error = %v", err)
	}

	report, err := GenerateSummaryReport(s, "/tmp/events.jsonl")
	if err != nil {
		t.Fatalf("GenerateSummaryReport() error = %v", err)
	}

	if report.TotalArtists != 2 || report.TotalAlbums != 3 || report.TotalSongs != 30 {
		t.Errorf("totals = %d/%d/%d, want 2/3/30",
			report.TotalArtists, report.TotalAlbums, report.TotalSongs)
	}
	if len(report.Libraries) != 1 {
		t.Fatalf("libraries = %d, want 1", len(report.Libraries))
	}
	if report.Libraries[0].Type != "storage" {
		t.Errorf("library type = %q, want storage", report.Libraries[0].Type)
	}
	if len(report.RecentScans) != 2 {
		t.Errorf("recent scans = %d, want 2", len(report.RecentScans))
	}
	if report.ScanErrorCount != 1 {
		t.Errorf("scan errors = %d, want 1", report.ScanErrorCount)
	}
	if report.SearchQueries != 1 {
		t.Errorf("search queries = %d, want 1", report.SearchQueries)
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	s, lib := newSummaryStore(t)

	if err := s.AppendScanHistory(s.DB(), &store.ScanHistory{
		LibraryID: lib.ID, FoundArtistsCount: 2, FoundSongsCount: 30, DurationMs: 500,
	}); err != nil {
		t.Fatalf("AppendScanHistory() error = %v", err)
	}

	report, err := GenerateSummaryReport(s, "")
	if err != nil {
		t.Fatalf("GenerateSummaryReport() error = %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "reports", "summary.md")
	if err := WriteMarkdownReport(report, outPath); err != nil {
		t.Fatalf("WriteMarkdownReport() error = %v", err)
	}

	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	md := string(content)

	for _, want := range []string{"## Overview", "## Libraries", "## Recent Scans", "| storage |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

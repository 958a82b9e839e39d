package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mbrandt/chorus/internal/store"
)

// SummaryReport represents a complete catalog summary
type SummaryReport struct {
	GeneratedAt time.Time

	Libraries []LibrarySummary

	TotalArtists int
	TotalAlbums  int
	TotalSongs   int

	RecentScans    []ScanSummary
	SearchQueries  int
	ScanErrorCount int

	DatabasePath string
	EventLogPath string
}

// LibrarySummary is the per-library slice of the report
type LibrarySummary struct {
	Name        string
	Type        string
	Path        string
	ArtistCount int
	AlbumCount  int
	SongCount   int
	LastScanAt  *time.Time
}

// ScanSummary is one row of recent scan history
type ScanSummary struct {
	Library      string
	FoundArtists int
	FoundAlbums  int
	FoundSongs   int
	Duration     time.Duration
	Error        string
	At           time.Time
}

// GenerateSummaryReport builds a summary from the catalog database
func GenerateSummaryReport(db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		EventLogPath: eventLogPath,
	}

	libraries, err := db.ListLibraries()
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	names := map[int64]string{}
	for _, lib := range libraries {
		names[lib.ID] = lib.Name
		report.Libraries = append(report.Libraries, LibrarySummary{
			Name:        lib.Name,
			Type:        lib.Type.String(),
			Path:        lib.Path,
			ArtistCount: lib.ArtistCount,
			AlbumCount:  lib.AlbumCount,
			SongCount:   lib.SongCount,
			LastScanAt:  lib.LastScanAt,
		})
		report.TotalArtists += lib.ArtistCount
		report.TotalAlbums += lib.AlbumCount
		report.TotalSongs += lib.SongCount

		history, err := db.ListScanHistory(lib.ID, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to list scan history: %w", err)
		}
		for _, h := range history {
			if h.Error != "" {
				report.ScanErrorCount++
			}
			report.RecentScans = append(report.RecentScans, ScanSummary{
				Library:      names[h.LibraryID],
				FoundArtists: h.FoundArtistsCount,
				FoundAlbums:  h.FoundAlbumsCount,
				FoundSongs:   h.FoundSongsCount,
				Duration:     time.Duration(h.DurationMs) * time.Millisecond,
				Error:        h.Error,
				At:           h.CreatedAt,
			})
		}
	}

	queries, err := db.CountSearchHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to count search history: %w", err)
	}
	report.SearchQueries = queries

	return report, nil
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Chorus - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`\n\n", report.DatabasePath))
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Artists | %d |\n", report.TotalArtists))
	md.WriteString(fmt.Sprintf("| Albums | %d |\n", report.TotalAlbums))
	md.WriteString(fmt.Sprintf("| Songs | %d |\n", report.TotalSongs))
	md.WriteString(fmt.Sprintf("| Search Queries | %d |\n", report.SearchQueries))
	if report.ScanErrorCount > 0 {
		md.WriteString(fmt.Sprintf("| Scans with Errors | %d |\n", report.ScanErrorCount))
	}
	md.WriteString("\n")

	if len(report.Libraries) > 0 {
		md.WriteString("## Libraries\n\n")
		md.WriteString("| Library | Type | Artists | Albums | Songs | Last Scan |\n")
		md.WriteString("|---------|------|---------|--------|-------|----------|\n")
		for _, lib := range report.Libraries {
			lastScan := "never"
			if lib.LastScanAt != nil {
				lastScan = humanize.Time(*lib.LastScanAt)
			}
			md.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %s |\n",
				lib.Name, lib.Type, lib.ArtistCount, lib.AlbumCount, lib.SongCount, lastScan))
		}
		md.WriteString("\n")
	}

	if len(report.RecentScans) > 0 {
		md.WriteString("## Recent Scans\n\n")
		md.WriteString("| Library | When | Artists | Albums | Songs | Duration | Error |\n")
		md.WriteString("|---------|------|---------|--------|-------|----------|-------|\n")
		for _, scan := range report.RecentScans {
			errText := "-"
			if scan.Error != "" {
				errText = scan.Error
			}
			md.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %s | %s |\n",
				scan.Library, humanize.Time(scan.At),
				scan.FoundArtists, scan.FoundAlbums, scan.FoundSongs,
				scan.Duration.Round(time.Millisecond), errText))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

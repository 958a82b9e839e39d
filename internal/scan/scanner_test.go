package scan

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/mbrandt/chorus/internal/settings"
)

func testScanSettings() *settings.Config {
	return &settings.Config{
		SkippedDirectoryPrefix: "_skip_ ",
		DuplicateAlbumPrefix:   "__duplicate_ ",
		BatchSize:              250,
	}
}

func writeFiles(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := afero.WriteFile(fs, p, []byte("x "+p), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", p, err)
		}
	}
}

func TestScanFindsAlbumDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/inbound/Pink Floyd/The Wall/01 - In the Flesh.mp3",
		"/inbound/Pink Floyd/The Wall/02 - The Thin Ice.mp3",
		"/inbound/Pink Floyd/The Wall/cover.jpg",
		"/inbound/Genesis/Duke/01 - Behind the Lines.flac",
		"/inbound/notes.txt",
	)

	s := New(&Config{Fs: fs, Settings: testScanSettings()})
	result, err := s.Scan(context.Background(), "/inbound", 0)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Units) != 2 {
		t.Fatalf("found %d units, want 2", len(result.Units))
	}
	// Deterministic path order.
	if result.Units[0].Path != "/inbound/Genesis/Duke" {
		t.Errorf("Units[0].Path = %q, want /inbound/Genesis/Duke", result.Units[0].Path)
	}
	if result.Units[1].Path != "/inbound/Pink Floyd/The Wall" {
		t.Errorf("Units[1].Path = %q, want /inbound/Pink Floyd/The Wall", result.Units[1].Path)
	}
	if len(result.Units[1].Files) != 2 {
		t.Errorf("The Wall has %d audio files, want 2", len(result.Units[1].Files))
	}
}

func TestScanFoldsDiscFolders(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/inbound/Pink Floyd/The Wall/Disc 1/01 - In the Flesh.mp3",
		"/inbound/Pink Floyd/The Wall/Disc 2/01 - Hey You.mp3",
	)

	s := New(&Config{Fs: fs, Settings: testScanSettings()})
	result, err := s.Scan(context.Background(), "/inbound", 0)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Units) != 1 {
		t.Fatalf("found %d units, want 1 (disc folders folded)", len(result.Units))
	}
	if result.Units[0].Path != "/inbound/Pink Floyd/The Wall" {
		t.Errorf("Path = %q, want album directory", result.Units[0].Path)
	}
	if len(result.Units[0].Files) != 2 {
		t.Errorf("unit has %d files, want 2", len(result.Units[0].Files))
	}
}

func TestScanSkipsMarkedDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/inbound/Keep/Album/01 - a.mp3",
		"/inbound/_skip_ Broken/Album/01 - b.mp3",
		"/inbound/Artist/__duplicate_ Album/01 - c.mp3",
	)

	s := New(&Config{Fs: fs, Settings: testScanSettings()})
	result, err := s.Scan(context.Background(), "/inbound", 0)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Units) != 1 {
		t.Fatalf("found %d units, want 1 (marked directories skipped)", len(result.Units))
	}
	if result.Units[0].Path != "/inbound/Keep/Album" {
		t.Errorf("Path = %q, want /inbound/Keep/Album", result.Units[0].Path)
	}
	if result.DirsSkipped != 2 {
		t.Errorf("DirsSkipped = %d, want 2", result.DirsSkipped)
	}
}

func TestScanHonorsLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/inbound/A/X/01 - a.mp3",
		"/inbound/B/Y/01 - b.mp3",
		"/inbound/C/Z/01 - c.mp3",
	)

	s := New(&Config{Fs: fs, Settings: testScanSettings()})
	result, err := s.Scan(context.Background(), "/inbound", 2)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(result.Units) != 2 {
		t.Fatalf("found %d units, want limit 2", len(result.Units))
	}
	// Limit keeps the lexicographically first units, so a rescan after
	// processing them picks up where this one stopped.
	if result.Units[0].Path != "/inbound/A/X" || result.Units[1].Path != "/inbound/B/Y" {
		t.Errorf("limited units = %q, %q", result.Units[0].Path, result.Units[1].Path)
	}
}

func TestScanCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/inbound/A/X/01 - a.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(&Config{Fs: fs, Settings: testScanSettings()})
	if _, err := s.Scan(ctx, "/inbound", 0); err != context.Canceled {
		t.Fatalf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestBatches(t *testing.T) {
	result := &Result{}
	for i := 0; i < 5; i++ {
		result.Units = append(result.Units, &Unit{Path: string(rune('a' + i))})
	}

	batches := result.Batches(2)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Errorf("batch sizes = %d, %d, %d; want 2, 2, 1",
			len(batches[0]), len(batches[1]), len(batches[2]))
	}

	empty := &Result{}
	if batches := empty.Batches(2); batches != nil {
		t.Errorf("empty result produced %d batches", len(batches))
	}
}

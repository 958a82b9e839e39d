package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.path == "" {
		t.Error("EventLogger path is empty")
	}

	if _, err := os.Stat(logger.path); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.path)
	}

	filename := filepath.Base(logger.path)
	if len(filename) < len("events-20060102-150405.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	event := &Event{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Event:     EventCommit,
		Directory: "/music/Pink Floyd/The Wall",
		Artist:    "Pink Floyd",
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	logger.Close()
	content, err := os.ReadFile(logger.path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if len(content) == 0 {
		t.Error("Log file is empty")
	}

	var decoded Event
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Failed to decode JSONL: %v", err)
	}

	if decoded.Directory != "/music/Pink Floyd/The Wall" {
		t.Errorf("Expected directory '/music/Pink Floyd/The Wall', got '%s'", decoded.Directory)
	}
	if decoded.Artist != "Pink Floyd" {
		t.Errorf("Expected artist 'Pink Floyd', got '%s'", decoded.Artist)
	}
}

func TestEventLogger_MultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	events := []*Event{
		{Level: LevelDebug, Event: EventUnit, Directory: "/music/a/b", Songs: 10},
		{Level: LevelInfo, Event: EventCommit, Directory: "/music/a/b", Artist: "a", Album: "b"},
		{Level: LevelWarning, Event: EventDuplicate, Directory: "/music/a/b (flac)"},
		{Level: LevelError, Event: EventError, Directory: "/music/broken", Error: "test error"},
	}

	for _, event := range events {
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", lineCount, err)
		}

		if decoded.Timestamp.IsZero() {
			t.Errorf("Line %d: timestamp not set", lineCount)
		}
	}

	if lineCount != len(events) {
		t.Errorf("Expected %d events, got %d", len(events), lineCount)
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				event := &Event{
					Level:     LevelInfo,
					Event:     EventCommit,
					Directory: "concurrent-test",
					Extra: map[string]string{
						"goroutine": string(rune(id)),
						"sequence":  string(rune(j)),
					},
				}
				if err := logger.Log(event); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()
	logger.Close()

	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", lineCount, err)
		}
	}

	expected := numGoroutines * eventsPerGoroutine
	if lineCount != expected {
		t.Errorf("Expected %d events, got %d", expected, lineCount)
	}
}

func TestEventLogger_LogCommit(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	duration := 250 * time.Millisecond
	err = logger.LogCommit("/music/Pink Floyd/The Wall", "Pink Floyd", "The Wall", 26, duration)
	if err != nil {
		t.Fatalf("LogCommit failed: %v", err)
	}

	logger.Close()

	content, _ := os.ReadFile(logger.path)
	var event Event
	json.Unmarshal(content, &event)

	if event.Event != EventCommit {
		t.Errorf("Expected event type 'commit', got '%s'", event.Event)
	}
	if event.Songs != 26 {
		t.Errorf("Expected songs 26, got %d", event.Songs)
	}
	if event.Duration != duration.Milliseconds() {
		t.Errorf("Expected duration %d ms, got %d ms", duration.Milliseconds(), event.Duration)
	}
}

func TestEventLogger_LogEnrichError(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	err = logger.LogEnrich("Pink Floyd", "musicbrainz", 0, time.Second, errors.New("unreachable"))
	if err != nil {
		t.Fatalf("LogEnrich failed: %v", err)
	}

	logger.Close()

	content, _ := os.ReadFile(logger.path)
	var event Event
	json.Unmarshal(content, &event)

	if event.Level != LevelWarning {
		t.Errorf("Expected level 'warning', got '%s'", event.Level)
	}
	if event.Provider != "musicbrainz" {
		t.Errorf("Expected provider 'musicbrainz', got '%s'", event.Provider)
	}
	if event.Error == "" {
		t.Error("Expected error message, got empty string")
	}
}

func TestEventLogger_LogDuplicate(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	err = logger.LogDuplicate("/music/other rip/The Wall [FLAC]", "Pink Floyd", "The Wall")
	if err != nil {
		t.Fatalf("LogDuplicate failed: %v", err)
	}

	logger.Close()

	content, _ := os.ReadFile(logger.path)
	var event Event
	json.Unmarshal(content, &event)

	if event.Event != EventDuplicate {
		t.Errorf("Expected event type 'duplicate', got '%s'", event.Event)
	}
	if event.Level != LevelWarning {
		t.Errorf("Expected level 'warning', got '%s'", event.Level)
	}
	if event.Album != "The Wall" {
		t.Errorf("Expected album 'The Wall', got '%s'", event.Album)
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	// Should not panic
	err := logger.Log(&Event{Level: LevelInfo, Event: EventCommit})
	if err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}

	err = logger.LogSkip("/path", "marker prefix")
	if err != nil {
		t.Errorf("NullLogger.LogSkip should not return error, got: %v", err)
	}

	err = logger.Close()
	if err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}

	path := logger.Path()
	if path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
}

func TestEventLogger_AutoTimestamp(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	event := &Event{
		Level: LevelInfo,
		Event: EventCommit,
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	logger.Close()

	content, _ := os.ReadFile(logger.path)
	var decoded Event
	json.Unmarshal(content, &decoded)

	if decoded.Timestamp.IsZero() {
		t.Error("Expected timestamp to be auto-set, but it's zero")
	}

	if time.Since(decoded.Timestamp) > 5*time.Second {
		t.Errorf("Timestamp is too old: %v", decoded.Timestamp)
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	testCases := []struct {
		name          string
		minLevel      EventLevel
		events        []Event
		expectedCount int
	}{
		{
			name:     "LevelDebug logs all",
			minLevel: LevelDebug,
			events: []Event{
				{Level: LevelDebug, Event: EventUnit},
				{Level: LevelInfo, Event: EventCommit},
				{Level: LevelWarning, Event: EventDuplicate},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 4,
		},
		{
			name:     "LevelInfo skips debug",
			minLevel: LevelInfo,
			events: []Event{
				{Level: LevelDebug, Event: EventUnit},
				{Level: LevelInfo, Event: EventCommit},
				{Level: LevelWarning, Event: EventDuplicate},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 3,
		},
		{
			name:     "LevelWarning skips debug and info",
			minLevel: LevelWarning,
			events: []Event{
				{Level: LevelDebug, Event: EventUnit},
				{Level: LevelInfo, Event: EventCommit},
				{Level: LevelWarning, Event: EventDuplicate},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 2,
		},
		{
			name:     "LevelError only logs errors",
			minLevel: LevelError,
			events: []Event{
				{Level: LevelDebug, Event: EventUnit},
				{Level: LevelInfo, Event: EventCommit},
				{Level: LevelWarning, Event: EventDuplicate},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			logger, err := NewEventLogger(tmpDir, tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}
			defer logger.Close()

			for _, e := range tc.events {
				if err := logger.Log(&e); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}

			logger.Close()

			file, err := os.Open(logger.path)
			if err != nil {
				t.Fatalf("Failed to open log file: %v", err)
			}
			defer file.Close()

			scanner := bufio.NewScanner(file)
			lineCount := 0
			for scanner.Scan() {
				lineCount++
			}

			if lineCount != tc.expectedCount {
				t.Errorf("Expected %d events logged, got %d", tc.expectedCount, lineCount)
			}
		})
	}
}

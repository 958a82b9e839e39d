package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventScan      EventType = "scan"
	EventUnit      EventType = "unit"
	EventResolve   EventType = "resolve"
	EventCommit    EventType = "commit"
	EventEnrich    EventType = "enrich"
	EventSkip      EventType = "skip"
	EventDuplicate EventType = "duplicate"
	EventConflict  EventType = "conflict"
	EventError     EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the ingestion pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	Library   string            `json:"library,omitempty"`
	Directory string            `json:"directory,omitempty"`
	Artist    string            `json:"artist,omitempty"`
	Album     string            `json:"album,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	Action    string            `json:"action,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Songs     int               `json:"songs,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogUnit logs the discovery of an album directory
func (l *EventLogger) LogUnit(library, directory string, songs int) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventUnit,
		Library:   library,
		Directory: directory,
		Songs:     songs,
	})
}

// LogResolve logs an identity resolution outcome
func (l *EventLogger) LogResolve(directory, artist, album, action string) error {
	return l.Log(&Event{
		Level:     LevelDebug,
		Event:     EventResolve,
		Directory: directory,
		Artist:    artist,
		Album:     album,
		Action:    action,
	})
}

// LogCommit logs a committed unit
func (l *EventLogger) LogCommit(directory, artist, album string, songs int, duration time.Duration) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventCommit,
		Directory: directory,
		Artist:    artist,
		Album:     album,
		Songs:     songs,
		Duration:  duration.Milliseconds(),
	})
}

// LogSkip logs a directory excluded from processing
func (l *EventLogger) LogSkip(directory, reason string) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventSkip,
		Directory: directory,
		Reason:    reason,
	})
}

// LogDuplicate logs a duplicate album detection
func (l *EventLogger) LogDuplicate(directory, artist, album string) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventDuplicate,
		Directory: directory,
		Artist:    artist,
		Album:     album,
	})
}

// LogConflict logs an identity conflict that needs review
func (l *EventLogger) LogConflict(directory, artist, reason string) error {
	return l.Log(&Event{
		Level:     LevelWarning,
		Event:     EventConflict,
		Directory: directory,
		Artist:    artist,
		Reason:    reason,
	})
}

// LogEnrich logs an enrichment provider query
func (l *EventLogger) LogEnrich(artist, provider string, found int, duration time.Duration, err error) error {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventEnrich,
		Artist:   artist,
		Provider: provider,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra:    map[string]string{"found": fmt.Sprintf("%d", found)},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, directory string, err error) error {
	return l.Log(&Event{
		Level:     LevelError,
		Event:     event,
		Directory: directory,
		Error:     err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}

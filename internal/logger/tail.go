package logger

import (
	"encoding/json"
	"sync"
)

const defaultTailSize = 1000

// LogEntry represents a parsed log entry kept for inspection.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Tail implements io.Writer and keeps the most recent log entries in a
// fixed-size ring so they can be served over the API. Once full, each new
// entry overwrites the oldest.
type Tail struct {
	mu      sync.RWMutex
	entries []LogEntry
	head    int
	count   int
}

// NewTail creates a log tail holding up to bufferSize entries.
func NewTail(bufferSize int) *Tail {
	if bufferSize <= 0 {
		bufferSize = defaultTailSize
	}
	return &Tail{entries: make([]LogEntry, bufferSize)}
}

// Write implements io.Writer. It receives JSON log entries from zerolog.
func (t *Tail) Write(p []byte) (n int, err error) {
	n = len(p)

	entry, parseErr := parseLogEntry(p)
	if parseErr != nil {
		return n, nil //nolint:nilerr // Silently ignore malformed log entries
	}

	t.mu.Lock()
	t.entries[(t.head+t.count)%len(t.entries)] = entry
	if t.count < len(t.entries) {
		t.count++
	} else {
		t.head = (t.head + 1) % len(t.entries)
	}
	t.mu.Unlock()
	return n, nil
}

// Recent returns all buffered log entries, oldest first.
func (t *Tail) Recent() []LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]LogEntry, t.count)
	for i := 0; i < t.count; i++ {
		result[i] = t.entries[(t.head+i)%len(t.entries)]
	}
	return result
}

// parseLogEntry parses a zerolog JSON entry into a LogEntry.
func parseLogEntry(data []byte) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LogEntry{}, err
	}

	entry := LogEntry{
		Fields: make(map[string]any),
	}

	if ts, ok := raw["time"].(string); ok {
		entry.Timestamp = ts
		delete(raw, "time")
	}
	if level, ok := raw["level"].(string); ok {
		entry.Level = level
		delete(raw, "level")
	}
	if component, ok := raw["component"].(string); ok {
		entry.Component = component
		delete(raw, "component")
	}
	if msg, ok := raw["message"].(string); ok {
		entry.Message = msg
		delete(raw, "message")
	}

	for k, v := range raw {
		entry.Fields[k] = v
	}

	return entry, nil
}

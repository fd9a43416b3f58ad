// Package logging provides leveled logging and run journaling for hydrorun.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A Journal for structured JSONL run events (output/journal.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level engine
// console output and encoded file contents are logged in full.
const LevelTrace = slog.LevelDebug - 4

// JournalFile is the name of the run journal inside the output directory.
const JournalFile = "journal.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "trace", "debug", "info", "warn", "error" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OrDefault returns l, or slog.Default() when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Indent prefixes every line of multi-line tool output for log readability.
func Indent(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	return "    " + strings.Join(lines, "\n    ")
}

// Journal appends structured run events to a JSONL file.
// It is safe for concurrent use. A nil Journal is safe to use;
// all methods are no-ops on nil receiver.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJournal opens dir/journal.jsonl for append.
// Below debug level it returns nil and no file is created.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func OpenJournal(dir string, level string) *Journal {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}

	path := filepath.Join(dir, JournalFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}

	return &Journal{file: f}
}

// Record writes one event as a single JSONL line.
// "event" and "time" fields are added. The caller's map is not mutated.
// Safe to call on nil receiver.
func (j *Journal) Record(event string, fields map[string]any) {
	if j == nil || j.file == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = event
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, _ = j.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (j *Journal) Close() {
	if j == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		j.file.Close()
		j.file = nil
	}
}

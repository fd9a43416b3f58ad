package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/hydrorun/internal/logging"
	"github.com/nvandessel/hydrorun/internal/pathutil"
)

// AuditEntry records one tool call. It holds parameter metadata, never the
// tree values or report contents a call carried.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	WorkingDir string            `json:"working_dir,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use and a nil AuditLogger discards everything.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens path for appending, creating its directory. It
// logs a warning and returns nil when the file cannot be opened: auditing
// never stops the server.
func NewAuditLogger(path string, log *slog.Logger) *AuditLogger {
	if path == "" {
		return nil
	}
	log = logging.OrDefault(log)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Warn("cannot create audit log directory", "dir", filepath.Dir(path), "error", err)
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Warn("cannot open audit log", "path", path, "error", err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as one line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.file.Write(append(data, '\n'))
}

// Close closes the audit file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// Parameters whose values are logged as is.
var safeValueParams = map[string]bool{
	"variable":  true,
	"period":    true,
	"metric":    true,
	"transform": true,
	"exponent":  true,
	"depth":     true,
	"target":    true,
	"limit":     true,
}

// sanitizeToolParams keeps the values of safeValueParams, redacts paths,
// reduces assignments to their keys and only notes the presence of
// anything else. Empty values are left out.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string)
	for key, val := range params {
		if isZero(val) {
			continue
		}
		switch {
		case safeValueParams[key]:
			out[key] = fmt.Sprintf("%v", val)
		case key == "path":
			out[key] = pathutil.RedactPath(fmt.Sprintf("%v", val))
		case key == "set":
			if list, ok := val.([]string); ok {
				out[key] = strings.Join(assignmentKeys(list), ",")
			}
		default:
			out[key] = "(set)"
		}
	}
	out["_param_count"] = fmt.Sprintf("%d", len(params))
	return out
}

func assignmentKeys(assignments []string) []string {
	keys := make([]string, 0, len(assignments))
	for _, a := range assignments {
		k, _, _ := strings.Cut(a, "=")
		keys = append(keys, strings.TrimSpace(k))
	}
	sort.Strings(keys)
	return keys
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int:
		return x == 0
	case float64:
		return x == 0
	case []string:
		return len(x) == 0
	}
	return false
}

// auditTool records a finished tool call.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]any) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}
	s.auditLogger.Log(AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		WorkingDir: pathutil.RedactPath(s.dir),
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
		Error:      errMsg,
		Params:     sanitizeToolParams(params),
	})
}

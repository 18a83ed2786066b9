package batch

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/domain-resolver/internal/model"
)

// LogWriter appends one JSON line per lookup. It is safe for concurrent use.
type LogWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	runID  string
	now    func() time.Time
}

// OpenLog opens path for appending, creating parent directories.
func OpenLog(path string) (*LogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "batch: create log dir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open log %s", path)
	}
	lw := NewLogWriter(f)
	lw.closer = f
	return lw, nil
}

// NewLogWriter writes records to w under a fresh run ID.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: w, runID: uuid.NewString(), now: time.Now}
}

// RunID identifies every record written by this writer.
func (l *LogWriter) RunID() string { return l.runID }

// Write appends the record for one lookup.
func (l *LogWriter) Write(q model.CompanyQuery, res model.ResolutionResult, elapsed time.Duration) error {
	line, err := json.Marshal(model.LookupLog{
		RunID:           l.runID,
		Timestamp:       l.now().UTC(),
		Input:           q,
		Result:          res,
		DurationSeconds: elapsed.Seconds(),
	})
	if err != nil {
		return eris.Wrap(err, "batch: marshal lookup log")
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line); err != nil {
		return eris.Wrap(err, "batch: write lookup log")
	}
	return nil
}

// Close closes the underlying file when the writer owns one.
func (l *LogWriter) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Package csvlog appends answered questions to a flat CSV file.
package csvlog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"interview-assistant/internal/domain"
)

var Header = []string{
	"Candidate Name",
	"Role",
	"Question",
	"Audio File",
	"Transcript",
	"Score",
	"Commentary",
	"Timestamp",
}

// Logger serializes appends within the process with a mutex and across
// processes with an exclusive lock on the file.
type Logger struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no results file configured", domain.ErrLogWrite)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating results dir: %w", domain.ErrLogWrite, err)
		}
	}
	return &Logger{path: path}, nil
}

func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) Append(_ context.Context, r domain.AnswerRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", domain.ErrLogWrite, l.path, err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("%w: locking %s: %w", domain.ErrLogWrite, l.path, err)
	}
	defer unlockFile(f)

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", domain.ErrLogWrite, l.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		w.Write(Header)
	}
	w.Write(Row(r))
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: encoding row: %w", domain.ErrLogWrite, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: writing %s: %w", domain.ErrLogWrite, l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", domain.ErrLogWrite, l.path, err)
	}
	return nil
}

// Row renders a record in Header column order.
func Row(r domain.AnswerRecord) []string {
	return []string{
		r.Candidate,
		r.Role,
		r.Question,
		r.AudioPath,
		r.Transcript,
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		r.Commentary,
		r.Timestamp.UTC().Format(time.RFC3339),
	}
}

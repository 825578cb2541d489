package csvlog_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"interview-assistant/internal/domain"
	"interview-assistant/internal/infra/csvlog"
)

func record(candidate string, n int) domain.AnswerRecord {
	return domain.AnswerRecord{
		Candidate:  candidate,
		Role:       "Backend Engineer",
		Question:   fmt.Sprintf("Question %d, with a comma?", n),
		AudioPath:  fmt.Sprintf("audio/%s/Q%d.webm", candidate, n),
		Transcript: "He said \"hello\"\nthen paused.",
		Score:      7.5,
		Commentary: "Good.",
		Timestamp:  time.Date(2024, 3, 1, 12, 0, n, 0, time.FixedZone("X", 3600)),
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing log: %v", err)
	}
	return rows
}

func TestLogger_AppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "interviews.csv")

	first, err := csvlog.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.Append(context.Background(), record("Ada", 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// a second logger on the same file, as another process would
	second, err := csvlog.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := second.Append(context.Background(), record("Ada", 2)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], csvlog.Header) {
		t.Errorf("header: %q", rows[0])
	}
	if rows[1][2] != "Question 1, with a comma?" || rows[1][4] != "He said \"hello\"\nthen paused." {
		t.Errorf("quoting lost: %q", rows[1])
	}
	if rows[1][5] != "7.5" {
		t.Errorf("score: %q", rows[1][5])
	}
	if rows[2][7] != "2024-03-01T11:00:02Z" {
		t.Errorf("timestamp not RFC 3339 UTC: %q", rows[2][7])
	}
}

func TestLogger_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interviews.csv")
	loggers := make([]*csvlog.Logger, 2)
	for i := range loggers {
		l, err := csvlog.New(path)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		loggers[i] = l
	}

	const perWorker = 25
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			l := loggers[w%len(loggers)]
			for i := 0; i < perWorker; i++ {
				if err := l.Append(context.Background(), record(fmt.Sprintf("cand%d", w), i)); err != nil {
					t.Errorf("Append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	rows := readRows(t, path)
	if len(rows) != 1+4*perWorker {
		t.Fatalf("expected %d rows, got %d", 1+4*perWorker, len(rows))
	}
	headers := 0
	for _, row := range rows {
		if len(row) != len(csvlog.Header) {
			t.Fatalf("torn row: %q", row)
		}
		if reflect.DeepEqual(row, csvlog.Header) {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("header written %d times", headers)
	}
}

func TestLogger_WriteFailureIsLogWriteError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "interviews.csv")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	l, err := csvlog.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = l.Append(context.Background(), record("Ada", 1))
	if !errors.Is(err, domain.ErrLogWrite) {
		t.Fatalf("expected ErrLogWrite, got %v", err)
	}
}

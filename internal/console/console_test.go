package console_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"interview-assistant/internal/application"
	"interview-assistant/internal/console"
	"interview-assistant/internal/domain"
	"interview-assistant/internal/infra/audio"
	"interview-assistant/internal/infra/csvlog"
)

type scriptedSource struct {
	clips   []application.Clip
	started bool
	stopped bool
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Start(context.Context) error {
	s.started = true
	return nil
}

func (s *scriptedSource) Stop() error {
	s.stopped = true
	return nil
}

func (s *scriptedSource) NextClip(ctx context.Context) (application.Clip, error) {
	if len(s.clips) == 0 {
		return application.Clip{}, errors.New("no more clips")
	}
	clip := s.clips[0]
	s.clips = s.clips[1:]
	return clip, nil
}

type flakyTranscriber struct {
	failures int
	calls    int
}

func (f *flakyTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("%w: whisper down", domain.ErrServiceUnavailable)
	}
	return "I built a queue.", nil
}

type failingLog struct{}

func (failingLog) Append(context.Context, domain.AnswerRecord) error {
	return domain.ErrLogWrite
}

func clips(n int) []application.Clip {
	out := make([]application.Clip, n)
	for i := range out {
		out[i] = application.Clip{ContentType: "audio/webm", Data: []byte(fmt.Sprintf("clip %d", i+1))}
	}
	return out
}

func newController(t *testing.T, services application.Services, results application.ResultLogger) *application.Controller {
	t.Helper()
	dir := t.TempDir()
	if results == nil {
		l, err := csvlog.New(filepath.Join(dir, "results.csv"))
		if err != nil {
			t.Fatalf("csvlog.New: %v", err)
		}
		results = l
	}
	return application.NewController(
		services,
		audio.NewFileStore(filepath.Join(dir, "audio")),
		results,
		nil,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		application.ControllerConfig{QuestionCount: 2, ServiceTimeout: time.Second},
	)
}

func TestConsole_Run(t *testing.T) {
	source := &scriptedSource{clips: clips(2)}
	var out bytes.Buffer
	input := strings.NewReader("Ada\nBackend Engineer\nBuild Go services.\n\n")

	c := console.New(newController(t, application.NewMockServices(), nil), source, input, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Hello Ada! This is a mock interview.",
		"Question 1 / 2",
		"Question 2 / 2",
		"You said: " + application.MockTranscript,
		"Score: 7.0/10.",
		"Interview complete: Ada (Backend Engineer)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !source.started || !source.stopped {
		t.Error("audio source should be started and stopped")
	}
}

func TestConsole_RepromptsOnMissingFields(t *testing.T) {
	source := &scriptedSource{clips: clips(1)}
	var out bytes.Buffer
	input := strings.NewReader("Ada\n\nBuild Go services.\n1\nAda\nBackend Engineer\nBuild Go services.\n1\n")

	c := console.New(newController(t, application.NewMockServices(), nil), source, input, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Please enter your name, the job title and the job description.") {
		t.Error("missing field message not shown")
	}
	if !strings.Contains(out.String(), "Answered 1/1") {
		t.Error("interview should complete with one question")
	}
}

func TestConsole_RetryAfterTranscriptionFailure(t *testing.T) {
	services := application.NewMockServices()
	transcriber := &flakyTranscriber{failures: 1}
	services.Transcriber = transcriber

	source := &scriptedSource{clips: clips(1)}
	var out bytes.Buffer
	input := strings.NewReader("Ada\nBackend Engineer\nBuild Go services.\n1\ny\n")

	c := console.New(newController(t, services, nil), source, input, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if transcriber.calls != 2 {
		t.Errorf("transcribe calls: got %d, want 2", transcriber.calls)
	}
	if !strings.Contains(out.String(), "Transcription failed, please retry.") {
		t.Error("failure message not shown")
	}
	if !strings.Contains(out.String(), "You said: I built a queue.") {
		t.Error("retried answer not shown")
	}
}

func TestConsole_DeclineRetryAbandons(t *testing.T) {
	services := application.NewMockServices()
	services.Transcriber = &flakyTranscriber{failures: 10}

	source := &scriptedSource{clips: clips(1)}
	input := strings.NewReader("Ada\nBackend Engineer\nBuild Go services.\n1\nn\n")

	c := console.New(newController(t, services, nil), source, input, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := c.Run(context.Background()); !errors.Is(err, console.ErrAbandoned) {
		t.Fatalf("expected ErrAbandoned, got %v", err)
	}
}

func TestConsole_LogFailureIsFatal(t *testing.T) {
	source := &scriptedSource{clips: clips(1)}
	var out bytes.Buffer
	input := strings.NewReader("Ada\nBackend Engineer\nBuild Go services.\n1\n")

	c := console.New(newController(t, application.NewMockServices(), failingLog{}), source, input, &out, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := c.Run(context.Background())
	var stepErr *application.StepError
	if !errors.As(err, &stepErr) || !stepErr.Fatal() {
		t.Fatalf("expected fatal step error, got %v", err)
	}
	if !strings.Contains(out.String(), "could not be written") {
		t.Error("fatal message not shown")
	}
}

func TestConsole_InputEndsEarly(t *testing.T) {
	source := &scriptedSource{}
	input := strings.NewReader("Ada\n")

	c := console.New(newController(t, application.NewMockServices(), nil), source, input, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := c.Run(context.Background()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

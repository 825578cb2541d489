package audio_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview-assistant/internal/infra/audio"
)

func TestHTTPSource_UploadedClipIsDelivered(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewHTTPSource(":0", "", 30, logger)

	handler := source.Handler()

	testAudio := []byte("test audio content")
	req := httptest.NewRequest(http.MethodPost, "/audio", bytes.NewReader(testAudio))
	req.Header.Set("Content-Type", "audio/webm")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status code: got %d, want %d", rec.Code, http.StatusAccepted)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	clip, err := source.NextClip(ctx)
	if err != nil {
		t.Fatalf("receiving clip: %v", err)
	}
	if !bytes.Equal(clip.Data, testAudio) || clip.ContentType != "audio/webm" {
		t.Errorf("clip mismatch: %q %q", clip.ContentType, clip.Data)
	}
}

func TestHTTPSource_RejectsWhilePending(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewHTTPSource(":0", "", 30, logger)
	handler := source.Handler()

	for i, want := range []int{http.StatusAccepted, http.StatusServiceUnavailable} {
		req := httptest.NewRequest(http.MethodPost, "/audio", bytes.NewReader([]byte("clip")))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("upload %d: got %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestHTTPSource_EmptyBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := audio.NewHTTPSource(":0", "", 30, logger)

	req := httptest.NewRequest(http.MethodPost, "/audio", http.NoBody)
	rec := httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPSource_UploadWithToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authToken := "test-secret-token-123"

	tests := []struct {
		name       string
		token      string
		method     string
		wantStatus int
	}{
		{
			name:       "valid token in header",
			token:      authToken,
			method:     "header",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "valid token in query",
			token:      authToken,
			method:     "query",
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "invalid token",
			token:      "wrong-token",
			method:     "header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing token",
			token:      "",
			method:     "header",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := audio.NewHTTPSource(":0", authToken, 30, logger)
			handler := source.Handler()

			body := []byte("answer clip")
			var req *http.Request

			if tt.method == "query" {
				req = httptest.NewRequest(http.MethodPost, "/audio?token="+tt.token, bytes.NewReader(body))
			} else {
				req = httptest.NewRequest(http.MethodPost, "/audio", bytes.NewReader(body))
				if tt.token != "" {
					req.Header.Set("X-Auth-Token", tt.token)
				}
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestFileSource_LoadFromDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	testCases := []struct {
		filename string
		content  []byte
	}{
		{"answer1.wav", []byte("RIFF....WAVEfmt audio data 1")},
		{"answer2.webm", []byte("webm audio data 2")},
		{"notes.txt", []byte("ignored")},
	}

	for _, tc := range testCases {
		path := filepath.Join(tmpDir, tc.filename)
		if err := os.WriteFile(path, tc.content, 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}

	source := audio.NewFileSource(tmpDir)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}

	first, err := source.NextClip(ctx)
	if err != nil {
		t.Fatalf("reading first clip: %v", err)
	}
	if first.ContentType != "audio/wav" || len(first.Data) == 0 {
		t.Errorf("first clip: %q, %d bytes", first.ContentType, len(first.Data))
	}

	second, err := source.NextClip(ctx)
	if err != nil {
		t.Fatalf("reading second clip: %v", err)
	}
	if second.ContentType != "audio/webm" {
		t.Errorf("second clip content type: %q", second.ContentType)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "answer1.wav.processed")); err != nil {
		t.Errorf("processed file not renamed: %v", err)
	}

	short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelShort()
	if _, err := source.NextClip(short); err == nil {
		t.Error("expected timeout once the directory is drained")
	}
}

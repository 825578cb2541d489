package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"interview-assistant/internal/domain"
)

type transcriber struct {
	stt     SpeechToText
	store   AudioStore
	metrics Metrics
}

func NewTranscriber(stt SpeechToText, store AudioStore, metrics Metrics) Transcriber {
	return &transcriber{stt: stt, store: store, metrics: metrics}
}

func (t *transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if audioPath == "" {
		return "", fmt.Errorf("%w: no recording", domain.ErrEmptyInput)
	}

	audio, err := t.store.Load(audioPath)
	if err != nil {
		return "", fmt.Errorf("loading recording: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: recording %s is empty", domain.ErrEmptyInput, audioPath)
	}

	text, err := t.stt.Transcribe(ctx, filepath.Base(audioPath), audio)
	t.metrics.ServiceCall(ctx, "transcription", err)
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", audioPath, err)
	}

	return strings.TrimSpace(text), nil
}

package application

import "context"

// SpeechToText is the hosted speech recognition service. filename carries
// the container format (e.g. "Q1.webm") for services that sniff by extension.
type SpeechToText interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

package application

import "context"

// AudioStore persists recorded answers on local disk.
type AudioStore interface {
	// Save writes the clip for the given session, candidate and 1-based
	// question number and returns its path. Saving again for the same slot
	// replaces the previous clip; other sessions never share a slot.
	Save(sessionID, candidate string, question int, contentType string, data []byte) (string, error)
	Load(path string) ([]byte, error)
}

// Clip is one recording produced by an AudioSource.
type Clip struct {
	ContentType string
	Data        []byte
}

// AudioSource captures clips for front ends that record on the server side.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextClip(ctx context.Context) (Clip, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}

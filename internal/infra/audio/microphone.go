//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"interview-assistant/internal/application"
)

const framesPerBuffer = 1024

// MicrophoneSource records one answer per NextClip call from the default
// input device. Recording stops after a second of silence following speech,
// or at the configured maximum length.
type MicrophoneSource struct {
	stream     *portaudio.Stream
	sampleRate int
	maxLength  time.Duration
	logger     *slog.Logger

	// frames is the buffer the stream was opened with; Read fills it.
	frames []int16
}

func NewMicrophoneSource(sampleRate int, maxLength time.Duration, logger *slog.Logger) *MicrophoneSource {
	if sampleRate <= 0 {
		sampleRate = application.DefaultAudioFormat().SampleRate
	}
	if maxLength <= 0 {
		maxLength = 2 * time.Minute
	}
	return &MicrophoneSource{
		sampleRate: sampleRate,
		maxLength:  maxLength,
		logger:     logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.frames = make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, m.frames)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	m.logger.Info("microphone ready", "sampleRate", m.sampleRate, "maxLength", m.maxLength)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
	return nil
}

func (m *MicrophoneSource) NextClip(ctx context.Context) (application.Clip, error) {
	if m.stream == nil {
		return application.Clip{}, fmt.Errorf("microphone not started")
	}

	if err := m.stream.Start(); err != nil {
		return application.Clip{}, fmt.Errorf("starting stream: %w", err)
	}
	defer m.stream.Stop()

	m.logger.Info("recording answer")

	const silenceThreshold = int16(500)
	maxSamples := int(m.maxLength.Seconds() * float64(m.sampleRate))
	maxSilence := m.sampleRate

	samples := make([]int16, 0, m.sampleRate*10)
	silence := 0
	heardSpeech := false

	for len(samples) < maxSamples {
		select {
		case <-ctx.Done():
			return application.Clip{}, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return application.Clip{}, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, m.frames...)

		silent := true
		for _, s := range m.frames {
			if s > silenceThreshold || s < -silenceThreshold {
				silent = false
				break
			}
		}

		if silent {
			silence += len(m.frames)
		} else {
			silence = 0
			heardSpeech = true
		}

		if heardSpeech && silence > maxSilence {
			break
		}
	}

	m.logger.Info("recording stopped", "seconds", float64(len(samples))/float64(m.sampleRate))

	data, err := EncodeWAV(samples, application.AudioFormat{SampleRate: m.sampleRate, Channels: 1, BitDepth: 16})
	if err != nil {
		return application.Clip{}, err
	}
	return application.Clip{ContentType: "audio/wav", Data: data}, nil
}

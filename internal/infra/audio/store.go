package audio

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"interview-assistant/internal/domain"
)

var knownExtensions = []string{".wav", ".webm", ".ogg", ".m4a", ".mp3"}

var (
	unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	nonAlnum   = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

const sessionTagLength = 8

// FileStore keeps answer clips under <dir>/<candidate>-<session>/Q<n><ext>,
// where <session> is the first characters of the session ID.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(sessionID, candidate string, question int, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty recording", domain.ErrEmptyInput)
	}
	if question < 1 {
		return "", fmt.Errorf("invalid question number %d", question)
	}

	ext, err := extensionFor(contentType, data)
	if err != nil {
		return "", err
	}
	if ext == ".wav" {
		d, err := WAVDuration(data)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrEmptyInput, err)
		}
		if d <= 0 {
			return "", fmt.Errorf("%w: recording has no audio", domain.ErrEmptyInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, ClipDir(sessionID, candidate))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating audio dir: %w", err)
	}

	base := fmt.Sprintf("Q%d", question)
	path := filepath.Join(dir, base+ext)

	tmp, err := os.CreateTemp(dir, base+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp clip: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing clip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing clip: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storing clip: %w", err)
	}

	// a re-recording in another format leaves the old clip behind otherwise
	for _, other := range knownExtensions {
		if other != ext {
			os.Remove(filepath.Join(dir, base+other))
		}
	}

	return path, nil
}

// ClipDir names the directory holding one session's clips.
func ClipDir(sessionID, candidate string) string {
	tag := nonAlnum.ReplaceAllString(sessionID, "")
	if len(tag) > sessionTagLength {
		tag = tag[:sessionTagLength]
	}
	if tag == "" {
		return SafeName(candidate)
	}
	return SafeName(candidate) + "-" + tag
}

func (s *FileStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading clip: %w", err)
	}
	return data, nil
}

// SafeName turns a candidate name into a single path element.
func SafeName(name string) string {
	safe := unsafeName.ReplaceAllString(strings.TrimSpace(name), "_")
	safe = strings.Trim(safe, "._")
	if safe == "" {
		return "candidate"
	}
	return safe
}

func extensionFor(contentType string, data []byte) (string, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch mediaType {
			case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
				return ".wav", nil
			case "audio/webm", "video/webm":
				return ".webm", nil
			case "audio/ogg", "application/ogg":
				return ".ogg", nil
			case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
				return ".m4a", nil
			case "audio/mpeg", "audio/mp3":
				return ".mp3", nil
			}
		}
	}

	switch {
	case isWAV(data):
		return ".wav", nil
	case len(data) >= 4 && string(data[:4]) == "\x1a\x45\xdf\xa3":
		return ".webm", nil
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return ".ogg", nil
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return ".mp3", nil
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return ".m4a", nil
	}
	return "", fmt.Errorf("unsupported audio format %q", contentType)
}

// ContentTypeFor maps a clip file name back to its media type.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return ""
	}
}

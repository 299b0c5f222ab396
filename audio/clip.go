package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMIMEType is used when a payload's type cannot be negotiated or
// guessed.
const DefaultMIMEType = "audio/webm"

// Clip is a finished audio payload ready for analysis, produced either by
// stopping a recording or by loading a file. Immutable once created; a new
// input replaces it wholesale.
type Clip struct {
	Data     []byte
	MIMEType string
	Name     string
}

var mimeByExt = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
}

// MIMETypeForPath guesses from the file extension, falling back to
// DefaultMIMEType.
func MIMETypeForPath(path string) string {
	if m, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return m
	}
	return DefaultMIMEType
}

// LoadClip reads an existing audio file into a Clip.
func LoadClip(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	return &Clip{
		Data:     data,
		MIMEType: MIMETypeForPath(path),
		Name:     filepath.Base(path),
	}, nil
}

func recordingName(format string, now time.Time) string {
	return fmt.Sprintf("recording-%d.%s", now.UnixMilli(), format)
}

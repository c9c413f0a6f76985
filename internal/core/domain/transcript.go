package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// TranscriptSegment is a timed span of a transcript.
type TranscriptSegment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript is the result of transcribing an audio payload.
type Transcript struct {
	// Text is the full transcript.
	Text string

	// Language is the detected language code, if reported.
	Language string

	// Duration is the audio length, if reported.
	Duration time.Duration

	// Segments holds timed spans in playback order.
	Segments []TranscriptSegment
}

// audioExtensions lists the containers accepted for transcription.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// IsAudioFile reports whether filename has a supported audio extension.
func IsAudioFile(filename string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filename))]
}

package driven

import (
	"context"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
)

// Transcriber converts an audio payload into a timed transcript.
type Transcriber interface {
	// Transcribe sends the audio bytes to the provider. filename is used
	// by the provider to detect the audio container format.
	Transcribe(ctx context.Context, audio []byte, filename string) (*domain.Transcript, error)
}

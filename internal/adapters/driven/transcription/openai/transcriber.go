// Package openai provides a transcription adapter for the OpenAI
// /audio/transcriptions endpoint and compatible servers.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure Transcriber implements the interface.
var _ driven.Transcriber = (*Transcriber)(nil)

const providerName = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the transcriber.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the transcription model (default: whisper-1).
	Model string

	// Timeout is the request timeout (default: 5m).
	Timeout time.Duration
}

// Transcriber converts audio into timed transcripts.
type Transcriber struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// verboseResponse is the verbose_json response format.
type verboseResponse struct {
	Text     *string   `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NewTranscriber creates a new transcriber.
func NewTranscriber(cfg Config) (*Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: transcription API key is required", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transcriber{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Transcribe uploads the audio and returns the transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (*domain.Transcript, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", domain.ErrInvalidInput)
	}
	if !domain.IsAudioFile(filename) {
		return nil, fmt.Errorf("%w: %q is not a supported audio file", domain.ErrUnsupportedFormat, filename)
	}

	body, contentType, err := t.encode(audio, filename)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, httpclient.Unavailable(providerName, "send request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httpclient.Unavailable(providerName, "read response", err)
	}
	if err := httpclient.CheckStatus(providerName, resp, raw); err != nil {
		return nil, err
	}

	var decoded verboseResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, httpclient.Unavailable(providerName, "decode response", err)
	}
	if decoded.Text == nil {
		return nil, fmt.Errorf("%w: openai: transcription response has no text", domain.ErrProviderUnavailable)
	}

	transcript := &domain.Transcript{
		Text:     strings.TrimSpace(*decoded.Text),
		Language: decoded.Language,
		Duration: seconds(decoded.Duration),
		Segments: make([]domain.TranscriptSegment, 0, len(decoded.Segments)),
	}
	for _, seg := range decoded.Segments {
		transcript.Segments = append(transcript.Segments, domain.TranscriptSegment{
			Start: seconds(seg.Start),
			End:   seconds(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	logger.Debug("openai: transcribed %s (%v audio) in %v", filename, transcript.Duration, time.Since(start))
	return transcript, nil
}

func (t *Transcriber) encode(audio []byte, filename string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", t.model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

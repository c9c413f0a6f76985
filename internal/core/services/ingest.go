package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driving"
	"github.com/custodia-labs/deepsearch/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService parses, chunks and indexes files.
type IngestService struct {
	parsers     driven.ParserRegistry
	chunker     driven.Chunker
	index       driving.IndexService
	transcriber driven.Transcriber
	now         func() time.Time
	newID       func() string
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithTranscriber enables audio ingestion.
func WithTranscriber(t driven.Transcriber) IngestOption {
	return func(s *IngestService) {
		s.transcriber = t
	}
}

// WithIDGenerator overrides document ID generation.
func WithIDGenerator(fn func() string) IngestOption {
	return func(s *IngestService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(fn func() time.Time) IngestOption {
	return func(s *IngestService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	parsers driven.ParserRegistry,
	chunker driven.Chunker,
	index driving.IndexService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		parsers: parsers,
		chunker: chunker,
		index:   index,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supports returns true if the file can be ingested.
func (s *IngestService) Supports(filename string) bool {
	if domain.IsAudioFile(filename) {
		return s.transcriber != nil
	}
	return s.parsers != nil && s.parsers.Supports(filename)
}

// IngestFile reads a file from disk and ingests it. Audio files are transcribed.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*domain.Document, error) {
	doc, _, err := s.ingestFile(ctx, path)
	return doc, err
}

// IngestBytes parses, chunks, embeds and stores an in-memory file.
func (s *IngestService) IngestBytes(ctx context.Context, data []byte, filename, source string) (*domain.Document, error) {
	doc, _, err := s.ingestBytes(ctx, data, filename, source)
	return doc, err
}

// IngestBatch ingests files one after another. A failure is recorded in
// its result and never aborts the remaining files.
func (s *IngestService) IngestBatch(ctx context.Context, paths []string) []driving.IngestResult {
	results := make([]driving.IngestResult, len(paths))
	for i, path := range paths {
		results[i].Path = path

		if err := ctx.Err(); err != nil {
			results[i].Err = fmt.Errorf("%s: %w", path, err)
			continue
		}

		doc, chunks, err := s.ingestFile(ctx, path)
		if err != nil {
			logger.Warn("Ingest %s failed: %v", path, err)
			results[i].Err = fmt.Errorf("%s: %w", path, err)
			continue
		}
		results[i].Document = doc
		results[i].Chunks = chunks
	}
	return results
}

// IngestTranscript transcribes an audio file and stores the transcript.
func (s *IngestService) IngestTranscript(ctx context.Context, path string) (*domain.Document, error) {
	if !domain.IsAudioFile(path) {
		return nil, fmt.Errorf("%w: %s is not an audio file (mp3, wav, m4a, webm, ogg)",
			domain.ErrUnsupportedFormat, filepath.Base(path))
	}

	doc, _, err := s.ingestFile(ctx, path)
	return doc, err
}

func (s *IngestService) ingestFile(ctx context.Context, path string) (*domain.Document, int, error) {
	data, source, err := readSource(path)
	if err != nil {
		return nil, 0, err
	}
	return s.ingestBytes(ctx, data, filepath.Base(path), source)
}

func (s *IngestService) ingestBytes(
	ctx context.Context,
	data []byte,
	filename, source string,
) (*domain.Document, int, error) {
	logger.Section("Ingest")
	logger.Debug("File: %s (%d bytes)", filename, len(data))

	if domain.IsAudioFile(filename) {
		return s.ingestAudio(ctx, data, filename, source)
	}
	if s.parsers == nil {
		return nil, 0, fmt.Errorf("%w: no parsers configured", domain.ErrUnsupportedFormat)
	}

	start := time.Now()
	parsed, err := s.parsers.Parse(ctx, data, filename)
	if err != nil {
		return nil, 0, err
	}
	logger.Debug("Parsed %s as %s in %v", filename, parsed.SourceType, time.Since(start).Round(time.Millisecond))

	return s.store(ctx, filename, source, parsed)
}

func (s *IngestService) ingestAudio(ctx context.Context, data []byte, filename, source string) (*domain.Document, int, error) {
	if s.transcriber == nil {
		return nil, 0, domain.ErrTranscriptionUnavailable
	}

	start := time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, data, filename)
	if err != nil {
		return nil, 0, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	logger.Debug("Transcribed %s (%v audio) in %v", filename, transcript.Duration, time.Since(start).Round(time.Millisecond))

	parsed := &domain.ParsedDocument{
		Text:       transcript.Text,
		SourceType: domain.SourceTypeTranscript,
		Metadata: domain.DocumentMetadata{
			WordCount: domain.CountWords(transcript.Text),
		},
	}
	return s.store(ctx, filename, source, parsed)
}

// store registers a parsed document and indexes its chunks.
func (s *IngestService) store(
	ctx context.Context,
	filename, source string,
	parsed *domain.ParsedDocument,
) (*domain.Document, int, error) {
	if s.chunker == nil || s.index == nil {
		return nil, 0, domain.ErrVectorIndexUnavailable
	}

	text := s.chunker.Normalise(parsed.Text)
	if text == "" {
		return nil, 0, fmt.Errorf("%w: %s contains no extractable text", domain.ErrInvalidInput, filename)
	}

	if source == "" {
		source = "upload"
	}

	meta := parsed.Metadata
	meta.Source = source
	meta.OriginalName = filename

	doc := &domain.Document{
		ID:         s.newID(),
		Name:       filename,
		SourceType: parsed.SourceType,
		RawText:    text,
		Metadata:   meta,
		CreatedAt:  s.now(),
	}

	chunks := s.chunker.Split(text, doc.ID)
	logger.Debug("Chunked %s into %d chunks", filename, len(chunks))
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: %s produced no chunks above the minimum chunk size",
			domain.ErrInvalidInput, filename)
	}

	if err := s.index.Insert(ctx, doc, chunks); err != nil {
		return nil, 0, err
	}
	return doc, len(chunks), nil
}

// readSource reads a file and returns its bytes with its absolute path.
func readSource(path string) ([]byte, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}

	source, err := filepath.Abs(path)
	if err != nil {
		source = path
	}
	return data, source, nil
}

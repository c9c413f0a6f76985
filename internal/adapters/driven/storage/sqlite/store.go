package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/deepsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/deepsearch/internal/core/domain"
	"github.com/custodia-labs/deepsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DatabaseFile is the database filename inside the data directory.
const DatabaseFile = "deepsearch.db"

const documentColumns = `d.id, d.name, d.source_type, d.raw_text, d.source,
	d.original_name, d.word_count, d.page_count, d.created_at`

const chunkColumns = `c.id, c.document_id, c.content, c.start_index, c.end_index,
	c.position, c.embedding`

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises Put and Delete.
	writeMu sync.Mutex
}

// DefaultDataDir returns ~/.deepsearch/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".deepsearch", "data"), nil
}

// NewStore opens (creating if needed) the store in dataDir.
// If dataDir is empty, defaults to ~/.deepsearch/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records their versions.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// Put stores the document and replaces its chunk set in one transaction.
func (s *Store) Put(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}
	for i := range chunks {
		if len(chunks[i].Embedding) == 0 {
			return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunks[i].ID)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// The upsert keeps the row's seq, so re-inserted documents hold their place.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, source_type, raw_text, source, original_name,
			word_count, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source_type = excluded.source_type,
			raw_text = excluded.raw_text,
			source = excluded.source,
			original_name = excluded.original_name,
			word_count = excluded.word_count,
			page_count = excluded.page_count,
			created_at = excluded.created_at
	`, doc.ID, doc.Name, string(doc.SourceType), doc.RawText, doc.Metadata.Source,
		doc.Metadata.OriginalName, doc.Metadata.WordCount, doc.Metadata.PageCount, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, start_index, end_index, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Content, chunk.StartIndex,
			chunk.EndIndex, chunk.Position, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query scores every chunk passing the filter and returns the best topK.
// Rows are read in insertion order so equal scores stay in that order.
func (s *Store) Query(
	ctx context.Context,
	vector []float32,
	topK int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	query := `SELECT ` + documentColumns + `, ` + chunkColumns + `
		FROM chunks c JOIN documents d ON d.id = c.document_id`
	args := make([]any, 0, len(filter.DocumentIDs))
	if len(filter.DocumentIDs) > 0 {
		query += ` WHERE c.document_id IN (?` + strings.Repeat(", ?", len(filter.DocumentIDs)-1) + `)`
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY d.seq, c.position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	// Documents repeat across rows; share one copy per ID.
	docs := make(map[string]domain.Document)
	results := make([]domain.SearchResult, 0)
	for rows.Next() {
		var doc domain.Document
		var chunk domain.Chunk
		if err := scanJoined(rows, &doc, &chunk); err != nil {
			return nil, err
		}
		if cached, ok := docs[doc.ID]; ok {
			doc = cached
		} else {
			docs[doc.ID] = doc
		}
		results = append(results, domain.SearchResult{
			Chunk:    chunk,
			Document: doc,
			Score:    similarity.Cosine(vector, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return similarity.TopK(results, topK), nil
}

// Delete removes a document; its chunks follow through ON DELETE CASCADE.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// Get returns a document and its chunks in position order, read from one snapshot.
func (s *Store) Get(ctx context.Context, documentID string) (*domain.Document, []domain.Chunk, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var doc domain.Document
	row := tx.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = ?`, documentID)
	if err := scanDocument(row, &doc); err != nil {
		return nil, nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+chunkColumns+`
		FROM chunks c WHERE c.document_id = ? ORDER BY c.position`, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		if err := scanChunk(rows, &chunk); err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return &doc, chunks, nil
}

// List returns all documents in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents d ORDER BY d.seq`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var doc domain.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Stats returns document and chunk counts.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	row := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM chunks)")
	if err := row.Scan(&stats.Documents, &stats.Chunks); err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting rows: %w", err)
	}
	return stats, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func documentDest(doc *domain.Document, sourceType *string) []any {
	return []any{&doc.ID, &doc.Name, sourceType, &doc.RawText, &doc.Metadata.Source,
		&doc.Metadata.OriginalName, &doc.Metadata.WordCount, &doc.Metadata.PageCount, &doc.CreatedAt}
}

func chunkDest(chunk *domain.Chunk, blob *[]byte) []any {
	return []any{&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.StartIndex,
		&chunk.EndIndex, &chunk.Position, blob}
}

// scanDocument scans a single document row.
func scanDocument(row scanner, doc *domain.Document) error {
	var sourceType string
	if err := row.Scan(documentDest(doc, &sourceType)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("scanning document: %w", err)
	}
	doc.SourceType = domain.SourceType(sourceType)
	return nil
}

// scanChunk scans a single chunk row.
func scanChunk(row scanner, chunk *domain.Chunk) error {
	var blob []byte
	if err := row.Scan(chunkDest(chunk, &blob)...); err != nil {
		return fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(blob)
	return nil
}

// scanJoined scans a document-then-chunk row from Query.
func scanJoined(row scanner, doc *domain.Document, chunk *domain.Chunk) error {
	var sourceType string
	var blob []byte
	dest := append(documentDest(doc, &sourceType), chunkDest(chunk, &blob)...)
	if err := row.Scan(dest...); err != nil {
		return fmt.Errorf("scanning chunk: %w", err)
	}
	doc.SourceType = domain.SourceType(sourceType)
	chunk.Embedding = bytesToFloat32Slice(blob)
	return nil
}

// Package sqlite provides a SQLite-backed implementation of driven.VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// applied versions are recorded in schema_migrations.
//
// Documents and chunks live in separate tables. Deleting a document cascades to
// its chunks. Embeddings are stored as little-endian float32 blobs and scored in
// process, so queries are a linear scan over the candidate chunks.
//
// # Data Location
//
// By default, the database is stored at ~/.deepsearch/data/deepsearch.db
//
// # Thread Safety
//
// All operations are thread-safe. Writes are serialised and run in a single
// transaction; readers see SQLite WAL snapshots.
package sqlite

// Package sqlite provides the persistent knowledge index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every embedded chunk is one row in the
// records table, keyed by its insertion sequence. The embedding model and vector
// dimension are kept in kb_meta so a reopened index rejects vectors of another size.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-kb/knowledge_base/index.db.
// The file is created on the first append, so an index that was never written
// to leaves nothing on disk.
//
// # Thread Safety
//
// Searches run against an in-memory mirror loaded at open time. Appends are
// serialised, committed in a single transaction and only then published to the
// mirror, so readers see either none or all of a batch.
package sqlite

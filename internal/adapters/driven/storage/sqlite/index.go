package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// DBFile is the database file name inside the index directory.
const DBFile = "index.db"

const (
	metaModel      = "model"
	metaDimensions = "dimensions"
)

// Ensure Index implements the interface.
var _ driven.KnowledgeIndex = (*Index)(nil)

// Index is a knowledge index persisted to SQLite.
type Index struct {
	writeMu sync.Mutex
	dir     string
	path    string
	db      *sql.DB
	mirror  *memory.Index
}

// DefaultDir returns ~/.sercha-kb/knowledge_base.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-kb", "knowledge_base"), nil
}

// OpenIndex opens the index stored in dir. If dir is empty, defaults to
// ~/.sercha-kb/knowledge_base. A missing database is not an error: the
// index starts empty and is created on the first append.
func OpenIndex(ctx context.Context, dir string) (*Index, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	idx := &Index{
		dir:    dir,
		path:   filepath.Join(dir, DBFile),
		mirror: memory.NewIndex(),
	}

	if _, err := os.Stat(idx.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No knowledge base at %s yet", idx.path)
			return idx, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	if err := idx.open(); err != nil {
		return nil, err
	}
	if err := idx.load(ctx); err != nil {
		idx.db.Close()
		return nil, err
	}
	return idx, nil
}

// open connects to the database and applies pending migrations.
func (x *Index) open() error {
	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", x.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("%w: opening database: %v", domain.ErrIndexUnavailable, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("%w: enabling foreign keys: %v", domain.ErrIndexUnavailable, err)
	}

	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return fmt.Errorf("%w: running migrations: %v", domain.ErrIndexUnavailable, err)
	}

	x.db = db
	return nil
}

// load reads metadata and every record into the mirror.
func (x *Index) load(ctx context.Context) error {
	meta, err := readMeta(ctx, x.db)
	if err != nil {
		return err
	}
	model := meta[metaModel]
	var dims int
	if raw := meta[metaDimensions]; raw != "" {
		if dims, err = strconv.Atoi(raw); err != nil {
			return fmt.Errorf("%w: corrupt dimensions %q in metadata", domain.ErrIndexUnavailable, raw)
		}
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT seq, id, document_id, source, position, offset_runes, content, metadata, embedding
		FROM records ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("%w: reading records: %v", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var records []domain.EmbeddingRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
		}
		if dims != 0 && len(r.Vector) != dims {
			return fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrIndexUnavailable, r.ID, len(r.Vector), dims)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: reading records: %v", domain.ErrIndexUnavailable, err)
	}

	if dims != 0 {
		x.mirror.Bind(model, dims)
	}
	x.mirror.Restore(model, records)

	logger.Debug("Loaded %d records from %s (%s, %d dimensions)", len(records), x.path, model, dims)
	return nil
}

// Append persists the records in one transaction and then publishes them
// to the search mirror.
func (x *Index) Append(ctx context.Context, model string, records []domain.EmbeddingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	dims, err := x.mirror.Validate(model, records)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if x.db == nil {
		if err := os.MkdirAll(x.dir, 0700); err != nil {
			return fmt.Errorf("%w: creating index directory: %v", domain.ErrIndexUnavailable, err)
		}
		if err := x.open(); err != nil {
			return err
		}
		logger.Info("Created knowledge base at %s", x.path)
	}

	stats, err := x.mirror.Stats(ctx)
	if err != nil {
		return err
	}
	if stats.Created && stats.Model != model {
		logger.Warn("Index was built with %s, appending vectors from %s", stats.Model, model)
	}

	batch := make([]domain.EmbeddingRecord, len(records))
	copy(batch, records)
	next := x.mirror.NextSeq()
	for i := range batch {
		batch[i].Seq = next + int64(i)
	}

	if err := x.insert(ctx, model, dims, !stats.Created, batch); err != nil {
		return err
	}

	x.mirror.Restore(model, batch)
	return nil
}

// insert writes the batch and, on first write, the index metadata.
func (x *Index) insert(ctx context.Context, model string, dims int, writeMeta bool, batch []domain.EmbeddingRecord) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrIndexUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if writeMeta {
		for key, value := range map[string]string{
			metaModel:      model,
			metaDimensions: strconv.Itoa(dims),
		} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO kb_meta (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value); err != nil {
				return fmt.Errorf("%w: writing metadata: %v", domain.ErrIndexUnavailable, err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (seq, id, document_id, source, position, offset_runes, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %v", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, r := range batch {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.Seq, r.ID, r.DocumentID, r.Source, r.Position,
			r.Offset, r.Content, string(metadataJSON), float32SliceToBytes(r.Vector)); err != nil {
			return fmt.Errorf("%w: saving record %s: %v", domain.ErrIndexUnavailable, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Search returns the k records most similar to vector.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	return x.mirror.Search(ctx, vector, k)
}

// Count returns the number of records.
func (x *Index) Count(ctx context.Context) (int, error) {
	return x.mirror.Count(ctx)
}

// Stats summarises the index, including where it is stored.
func (x *Index) Stats(ctx context.Context) (*domain.KnowledgeBaseStats, error) {
	stats, err := x.mirror.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Path = x.path
	return stats, nil
}

// Path returns the database file path.
func (x *Index) Path() string {
	return x.path
}

// Close closes the database connection.
func (x *Index) Close() error {
	x.writeMu.Lock()
	defer x.writeMu.Unlock()

	_ = x.mirror.Close()
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_knowledge_base.up.sql" -> 1
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
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM kb_meta")
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %v", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: reading metadata: %v", domain.ErrIndexUnavailable, err)
		}
		meta[key] = value
	}
	return meta, rows.Err()
}

// scanRecord scans a single records row.
func scanRecord(rows *sql.Rows) (domain.EmbeddingRecord, error) {
	var r domain.EmbeddingRecord
	var metadataJSON sql.NullString
	var embeddingBlob []byte

	if err := rows.Scan(&r.Seq, &r.ID, &r.DocumentID, &r.Source, &r.Position, &r.Offset,
		&r.Content, &metadataJSON, &embeddingBlob); err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}

	r.Vector = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &r.Metadata); err != nil {
			return r, fmt.Errorf("unmarshaling metadata for %s: %w", r.ID, err)
		}
		normaliseNumbers(r.Metadata)
	}
	return r, nil
}

// normaliseNumbers turns whole JSON numbers back into ints so page and row
// numbers read from disk compare equal to freshly ingested ones.
func normaliseNumbers(m map[string]any) {
	for k, v := range m {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			m[k] = int(f)
		}
	}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
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

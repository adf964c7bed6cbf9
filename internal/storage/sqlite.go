package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
)

// SQLiteStorage implements EntryStore and LabelStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var (
	_ EntryStore = (*SQLiteStorage)(nil)
	_ LabelStore = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_entries (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		seq INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_index_entries_seq ON index_entries(seq);

	CREATE TABLE IF NOT EXISTS drug_labels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_drug_labels_name ON drug_labels(name);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveEntry inserts or replaces an entry. A replaced entry keeps its original insertion sequence.
func (s *SQLiteStorage) SaveEntry(ctx context.Context, entry models.IndexEntry) error {
	metadataJSON, err := json.Marshal(entry.Document.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO index_entries (id, text, metadata, embedding, seq, created_at, updated_at)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM index_entries), ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   text = excluded.text,
		   metadata = excluded.metadata,
		   embedding = excluded.embedding,
		   updated_at = excluded.updated_at`,
		entry.Document.ID, entry.Document.Text, string(metadataJSON),
		encodeVector(entry.Embedding), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save entry %s: %w", entry.Document.ID, err)
	}
	return nil
}

// LoadEntries returns all entries in insertion order.
func (s *SQLiteStorage) LoadEntries(ctx context.Context) ([]models.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding FROM index_entries ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.IndexEntry
	for rows.Next() {
		var entry models.IndexEntry
		var metadataJSON sql.NullString
		var blob []byte
		if err := rows.Scan(&entry.Document.ID, &entry.Document.Text, &metadataJSON, &blob); err != nil {
			return nil, err
		}
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &entry.Document.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", entry.Document.ID, err)
			}
		}
		entry.Embedding = decodeVector(blob)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteAllEntries removes every persisted entry.
func (s *SQLiteStorage) DeleteAllEntries(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM index_entries`)
	return err
}

// CountEntries returns the number of persisted entries.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_entries`).Scan(&n)
	return n, err
}

// PutLabel stores or replaces a label.
func (s *SQLiteStorage) PutLabel(ctx context.Context, label *models.DrugLabel) error {
	data, err := json.Marshal(label)
	if err != nil {
		return fmt.Errorf("failed to marshal label: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drug_labels (id, name, data, fetched_at) VALUES (?, ?, ?, ?)`,
		label.ID, label.Name(), string(data), time.Now(),
	)
	return err
}

// GetLabel returns a label by ID, or a not-found error.
func (s *SQLiteStorage) GetLabel(ctx context.Context, id string) (*models.DrugLabel, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM drug_labels WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound(fmt.Sprintf("label not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	var label models.DrugLabel
	if err := json.Unmarshal([]byte(data), &label); err != nil {
		return nil, fmt.Errorf("failed to unmarshal label: %w", err)
	}
	return &label, nil
}

// DeleteLabel removes a label by ID. Deleting a missing label is not an error.
func (s *SQLiteStorage) DeleteLabel(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drug_labels WHERE id = ?`, id)
	return err
}

// ListLabels returns all stored labels ordered by name.
func (s *SQLiteStorage) ListLabels(ctx context.Context) ([]*models.DrugLabel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM drug_labels ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*models.DrugLabel
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var label models.DrugLabel
		if err := json.Unmarshal([]byte(data), &label); err != nil {
			continue
		}
		labels = append(labels, &label)
	}
	return labels, rows.Err()
}

// CountLabels returns the number of stored labels.
func (s *SQLiteStorage) CountLabels(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drug_labels`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

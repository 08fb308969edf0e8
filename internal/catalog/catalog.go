// Package catalog keeps an optional sqlite index of every archived item.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/ytget/yt-archiver/internal/model"
)

const (
	// DriverName is the database/sql driver used for the catalog
	DriverName = "sqlite3"
	// DSNOptions are appended to the database path
	DSNOptions = "?_journal_mode=WAL&_synchronous=normal&_busy_timeout=5000"
)

// ErrNotFound is returned when an item is not catalogued
var ErrNotFound = errors.New("item not found in catalog")

const schema = `
CREATE TABLE IF NOT EXISTS items (
	item_id     TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	upload_date TEXT NOT NULL,
	path        TEXT NOT NULL,
	size        INTEGER NOT NULL,
	digest      TEXT NOT NULL,
	info        TEXT NOT NULL,
	archived_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS items_upload_date ON items (upload_date);
`

// Record is one catalogued item
type Record struct {
	ItemID     string    `db:"item_id"`
	Title      string    `db:"title"`
	UploadDate string    `db:"upload_date"`
	Path       string    `db:"path"`
	Size       int64     `db:"size"`
	Digest     string    `db:"digest"`
	Info       string    `db:"info"`
	ArchivedAt time.Time `db:"archived_at"`
}

// Store handles catalog database operations.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (creating if needed) the catalog database at path
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect(DriverName, "file:"+path+DSNOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordItem upserts the archived item; a re-archived item replaces its row.
func (s *Store) RecordItem(ctx context.Context, item model.ItemResult) error {
	info, err := json.Marshal(item.Info)
	if err != nil {
		return fmt.Errorf("failed to encode item metadata: %w", err)
	}

	title, _ := item.Info[model.InfoKeyTitle].(string)
	rec := Record{
		ItemID:     item.ID,
		Title:      title,
		UploadDate: item.UploadDate,
		Path:       item.Path,
		Size:       item.Size,
		Digest:     item.Digest.String(),
		Info:       string(info),
		ArchivedAt: s.now().UTC(),
	}

	query := `
		INSERT INTO items (item_id, title, upload_date, path, size, digest, info, archived_at)
		VALUES (:item_id, :title, :upload_date, :path, :size, :digest, :info, :archived_at)
		ON CONFLICT (item_id) DO UPDATE SET
			title=excluded.title,
			upload_date=excluded.upload_date,
			path=excluded.path,
			size=excluded.size,
			digest=excluded.digest,
			info=excluded.info,
			archived_at=excluded.archived_at
	`
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
	}
	return nil
}

// Get retrieves a catalogued item by id
func (s *Store) Get(ctx context.Context, itemID string) (*Record, error) {
	var rec Record
	query := `SELECT item_id, title, upload_date, path, size, digest, info, archived_at FROM items WHERE item_id = ?`
	if err := s.db.GetContext(ctx, &rec, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	return &rec, nil
}

// List returns every catalogued item ordered by upload date
func (s *Store) List(ctx context.Context) ([]Record, error) {
	var recs []Record
	query := `SELECT item_id, title, upload_date, path, size, digest, info, archived_at FROM items ORDER BY upload_date, item_id`
	if err := s.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return recs, nil
}

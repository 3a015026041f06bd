package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ImageRecord is one stored image's metadata row.
type ImageRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// ErrNoRecord is returned when an id does not exist.
var ErrNoRecord = errors.New("image not found")

// Repo persists image metadata in SQLite.
type Repo struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	url TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// OpenRepo opens (creating if needed) the database at path.
func OpenRepo(path string) (*Repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes itself but not across
	// connections; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close releases the database handle.
func (r *Repo) Close() error { return r.db.Close() }

// Insert stores one record. CreatedAt is set to now if empty.
func (r *Repo) Insert(ctx context.Context, rec *ImageRecord) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO images (id, name, width, height, url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Width, rec.Height, rec.URL, rec.CreatedAt)
	return err
}

// List returns records newest first, optionally filtered by a
// case-insensitive name substring.
func (r *Repo) List(ctx context.Context, search string) ([]ImageRecord, error) {
	var rows *sql.Rows
	var err error
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, name, width, height, url, created_at FROM images
			 WHERE LOWER(name) LIKE ? ORDER BY created_at DESC, id DESC`, like)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, name, width, height, url, created_at FROM images
			 ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ImageRecord{}
	for rows.Next() {
		var rec ImageRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Width, &rec.Height, &rec.URL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns one record by id.
func (r *Repo) Get(ctx context.Context, id string) (*ImageRecord, error) {
	var rec ImageRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, width, height, url, created_at FROM images WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Width, &rec.Height, &rec.URL, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes one record by id.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRecord
	}
	return nil
}

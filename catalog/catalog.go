/*
Package catalog records rendered pictures in a small sqlite database so any
of them can be rendered again from its seed.
*/
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("catalog: entry not found")

// Kinds of render.
const (
	KindSingle = "single"
	KindGrid   = "grid"
)

// Entry describes one saved render.
type Entry struct {
	ID           int64
	Created      time.Time
	Kind         string
	Seed         int64
	InvaderWidth int
	InvaderCount int
	PictureWidth int
	Scale        int
	MaxAttempts  int

	// Palette names the palette source, Background and Detail are hex colors.
	Palette    string
	Background string
	Detail     string
	LUT        string
	Path       string
}

// Catalog is a handle on the database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog stored in file.
func Open(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS render (id INTEGER PRIMARY KEY NOT NULL, created INTEGER NOT NULL, kind TEXT NOT NULL, seed INTEGER NOT NULL, invader_width INTEGER NOT NULL, invader_count INTEGER NOT NULL, picture_width INTEGER NOT NULL, scale INTEGER NOT NULL, max_attempts INTEGER NOT NULL, palette TEXT NOT NULL, background TEXT NOT NULL, detail TEXT NOT NULL, lut TEXT NOT NULL, path TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores e and returns its id. Created defaults to now.
func (c *Catalog) Record(e Entry) (int64, error) {
	if e.Kind != KindSingle && e.Kind != KindGrid {
		return 0, fmt.Errorf("catalog: invalid kind %q", e.Kind)
	}
	if e.Created.IsZero() {
		e.Created = time.Now()
	}

	result, err := c.db.Exec("INSERT INTO render (created, kind, seed, invader_width, invader_count, picture_width, scale, max_attempts, palette, background, detail, lut, path) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.Created.UnixNano(), e.Kind, e.Seed, e.InvaderWidth, e.InvaderCount, e.PictureWidth, e.Scale, e.MaxAttempts, e.Palette, e.Background, e.Detail, e.LUT, e.Path)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const selectEntry = "SELECT id, created, kind, seed, invader_width, invader_count, picture_width, scale, max_attempts, palette, background, detail, lut, path FROM render"

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var created int64
	if err := s.Scan(&e.ID, &created, &e.Kind, &e.Seed, &e.InvaderWidth, &e.InvaderCount, &e.PictureWidth, &e.Scale, &e.MaxAttempts, &e.Palette, &e.Background, &e.Detail, &e.LUT, &e.Path); err != nil {
		return Entry{}, err
	}
	e.Created = time.Unix(0, created)
	return e, nil
}

// Get returns the entry with the given id.
func (c *Catalog) Get(id int64) (Entry, error) {
	switch e, err := scanEntry(c.db.QueryRow(selectEntry+" WHERE id = ?", id)); err {
	case sql.ErrNoRows:
		return Entry{}, ErrNotFound
	case nil:
		return e, nil
	default:
		return Entry{}, err
	}
}

// List returns the most recent entries first, at most limit of them when
// limit is positive.
func (c *Catalog) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := c.db.Query(selectEntry+" ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

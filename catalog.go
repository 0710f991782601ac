package pubgen

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubgen/markdown"
)

// Catalog is a queryable SQLite mirror of the index. The index file stays
// the source of truth; Sync replaces the mirror wholesale.
type Catalog struct {
	db *sql.DB
}

// NewCatalog opens (or creates) the SQLite database at path, ensures the
// directory exists, and creates the schema.
func NewCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	c := &Catalog{db: db}
	if err := c.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// schemaVersion 2 stores tags as a JSON array; version 1 used ",a,b,".
const schemaVersion = 2

func (c *Catalog) ensureSchema() error {
	var version int
	if err := c.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version < schemaVersion {
		// The catalog is a mirror, so an old layout is dropped and refilled
		// by the next Sync.
		if _, err := c.db.Exec(`DROP TABLE IF EXISTS records`); err != nil {
			return err
		}
	}
	_, err := c.db.Exec(`
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY,
    slug TEXT NOT NULL,
    title TEXT NOT NULL,
    link TEXT NOT NULL,
    summary TEXT NOT NULL,
    date TEXT NOT NULL,
    date_display TEXT NOT NULL,
    author TEXT NOT NULL,
    tags TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_slug ON records (slug);
`)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

// Sync replaces the catalog contents with records in one transaction.
func (c *Catalog) Sync(records []Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO records (id, slug, title, link, summary, date, date_display, author, tags) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		tags, err := encodeTags(r.Tags)
		if err != nil {
			return fmt.Errorf("catalog record %d: %w", r.ID, err)
		}
		if _, err := stmt.Exec(r.ID, r.Slug, r.Title, r.Link, r.Summary,
			r.Date.Format(markdown.DateLayout), r.DateDisplay, r.Author, tags); err != nil {
			return fmt.Errorf("catalog record %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

const recordColumns = `id, slug, title, link, summary, date, date_display, author, tags`

// ListRecords returns records newest first. If tag is non-empty, results
// are filtered to records carrying that tag (case-insensitive).
func (c *Catalog) ListRecords(tag string) ([]Record, error) {
	rows, err := c.db.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		// SQLite's lower() folds ASCII only, so the tag match happens here.
		if tag == "" || hasTag(r, tag) {
			records = append(records, r)
		}
	}
	return records, rows.Err()
}

// ListTags returns a sorted, deduplicated, lower-cased slice of all tags.
func (c *Catalog) ListTags() ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT t.value FROM records, json_each(records.tags) AS t`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		if t = normalizeTag(t); t != "" {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetRecord returns the newest record with slug.
func (c *Catalog) GetRecord(slug string) (Record, error) {
	row := c.db.QueryRow(`SELECT `+recordColumns+` FROM records WHERE slug = ? ORDER BY id DESC LIMIT 1`, slug)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var r Record
	var date, tags string
	if err := s.Scan(&r.ID, &r.Slug, &r.Title, &r.Link, &r.Summary, &date, &r.DateDisplay, &r.Author, &tags); err != nil {
		return Record{}, err
	}
	d, err := time.Parse(markdown.DateLayout, date)
	if err != nil {
		return Record{}, fmt.Errorf("catalog record %d: %w", r.ID, err)
	}
	r.Date = d
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return Record{}, fmt.Errorf("catalog record %d tags: %w", r.ID, err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

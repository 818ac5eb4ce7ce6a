// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mdhender/confignode"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrDocumentNotFound is returned by Children when no document has the given name.
var ErrDocumentNotFound = errors.New("document not found")

// memoryDatabases numbers in-memory databases so that every store gets its own.
var memoryDatabases atomic.Int64

// SQLiteStore is a SQLite-backed store for parsed ConfigNode documents.
// Each document's tree is flattened into one row per value.
type SQLiteStore struct {
	db *sql.DB
}

// StoreConfig holds configuration for creating a SQLiteStore.
type StoreConfig struct {
	// Path is the file path for file-based SQLite.
	// If empty, an in-memory database is used.
	Path string

	// InitSchema controls whether to run schema initialization.
	// For file-based mode this is normally false, since the database
	// is created by InitDatabase.
	InitSchema bool
}

// NewSQLiteStore creates a new in-memory SQLite store with schema loaded.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(StoreConfig{InitSchema: true})
}

// NewSQLiteStoreWithConfig creates a SQLite store based on the provided configuration.
// For file-based mode (Path is set), the database file MUST already exist.
// Use InitDatabase to create and initialize a new database file.
func NewSQLiteStoreWithConfig(cfg StoreConfig) (*SQLiteStore, error) {
	var dsn string

	if cfg.Path == "" {
		// In-memory mode. The database lives as long as one connection
		// is open, so the pool is pinned to a single connection.
		dsn = fmt.Sprintf("file:confignode-%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", memoryDatabases.Add(1))
	} else {
		// File-based mode: verify the database file exists before opening
		// (SQLite will create it automatically otherwise, which we don't want)
		if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
			return nil, fmt.Errorf("database file does not exist: %s (run with --init-db to create it)", cfg.Path)
		}
		dsn = fileDSN(cfg.Path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Path == "" {
		db.SetMaxOpenConns(1)
	}

	// Initialize schema if requested (always true for in-memory, configurable for file-based)
	if cfg.InitSchema || cfg.Path == "" {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// InitDatabase creates a new SQLite database file and initializes the schema.
// Returns an error if the file already exists.
func InitDatabase(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file already exists: %s", path)
	}

	db, err := sql.Open("sqlite", fileDSN(path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Run the embedded schema to create tables
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}

	return nil
}

// fileDSN applies PRAGMA's per-connection via DSN so the pool always has them.
// modernc.org/sqlite supports repeated _pragma=... parameters.
func fileDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		path,
	)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Document describes a saved document.
type Document struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Entries   int // number of values, at any depth
}

// Entry is one value of a saved document.
type Entry struct {
	Path   []string // keys from the root down to this entry
	Key    string   // last element of Path
	IsNode bool
	Text   string // empty for nodes
}

const (
	kindText = "text"
	kindNode = "node"
)

// SaveDocument stores the tree under name, replacing any document already saved
// under that name. It returns the new document id.
func (s *SQLiteStore) SaveDocument(ctx context.Context, name string, root *confignode.Node) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE document_id IN (SELECT id FROM documents WHERE name = ?)`, name); err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO documents (name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	docID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get document id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (document_id, path, parent_path, key, kind, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	err = root.Walk(func(path []string, v confignode.Value) error {
		kind, text := kindNode, ""
		if t, ok := v.AsText(); ok {
			kind, text = kindText, t
		}
		key := path[len(path)-1]
		_, err := stmt.ExecContext(ctx, docID, encodePath(path), encodePath(path[:len(path)-1]), key, kind, text)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return docID, nil
}

// Documents returns all saved documents ordered by name.
func (s *SQLiteStore) Documents(ctx context.Context) ([]Document, error) {
	const query = `
		SELECT d.id, d.name, d.created_at, COUNT(e.path)
		FROM documents d
		LEFT JOIN entries e ON e.document_id = d.id
		GROUP BY d.id
		ORDER BY d.name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Name, &createdAt, &d.Entries); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("document %s: created_at: %w", d.Name, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a saved document. It reports whether one existed.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE document_id IN (SELECT id FROM documents WHERE name = ?)`, name); err != nil {
		return false, fmt.Errorf("delete entries: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n != 0, nil
}

// Lookup returns the entry at path in the named document.
// Returns nil if the document or the path does not exist.
func (s *SQLiteStore) Lookup(ctx context.Context, name string, path ...string) (*Entry, error) {
	if len(path) == 0 {
		return nil, errors.New("lookup: empty path")
	}
	const query = `
		SELECT e.kind, e.value
		FROM entries e
		JOIN documents d ON d.id = e.document_id
		WHERE d.name = ? AND e.path = ?
	`
	var kind, value string
	err := s.db.QueryRowContext(ctx, query, name, encodePath(path)).Scan(&kind, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	return &Entry{
		Path:   path,
		Key:    path[len(path)-1],
		IsNode: kind == kindNode,
		Text:   value,
	}, nil
}

// Children returns the direct children of the node at path, sorted by key.
// An empty path lists the document's top-level entries.
// It returns ErrDocumentNotFound if the document does not exist.
func (s *SQLiteStore) Children(ctx context.Context, name string, path ...string) ([]Entry, error) {
	var docID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE name = ?`, name).Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrDocumentNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	const query = `
		SELECT key, kind, value
		FROM entries
		WHERE document_id = ? AND parent_path = ?
		ORDER BY key
	`
	rows, err := s.db.QueryContext(ctx, query, docID, encodePath(path))
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Key, &kind, &e.Text); err != nil {
			return nil, err
		}
		e.Path = append(slices.Clip(path), e.Key)
		e.IsNode = kind == kindNode
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// encodePath turns a key path into the string stored in the path columns.
// Keys may contain any character, including '/', so each one is quoted.
func encodePath(path []string) string {
	quoted := make([]string, len(path))
	for i, key := range path {
		quoted[i] = strconv.Quote(key)
	}
	return strings.Join(quoted, "/")
}

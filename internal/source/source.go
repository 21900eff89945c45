// Package source turns external inputs into trees: JSON documents from a
// filesystem and record batches streamed out of SQLite results databases. It
// also exposes a raw JSONPath probe for exploring a document before any
// inference runs.
package source

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	"github.com/agentic-research/descry/internal/tree"
	"github.com/go-git/go-billy/v5"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// LoadJSON reads one JSON document and builds its tree. The source name is
// the file's base name, so models keyed by it stay stable across directories.
func LoadJSON(fs billy.Filesystem, path string) (*tree.Tree, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // safe to ignore

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return tree.Parse(data, filepath.Base(path))
}

// ReadDocument decodes one JSON document into a generic value, for probing.
func ReadDocument(fs billy.Filesystem, path string) (any, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() // safe to ignore

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Probe runs a JSONPath selector against a decoded document. This is the
// ad-hoc exploration surface; the model pipeline uses the tree's own
// wildcard addressing instead.
func Probe(doc any, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", selector, err)
	}
	return x.Get(doc), nil
}

// StreamTrees iterates the results table of a SQLite database, building one
// tree per record. Only one tree is alive at a time, keeping memory usage
// constant; fn errors abort the stream.
func StreamTrees(dbPath string, fn func(*tree.Tree) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query("SELECT id, record FROM results")
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		t, err := tree.Parse([]byte(raw), id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return rows.Err()
}

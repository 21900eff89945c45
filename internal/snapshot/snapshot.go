// Package snapshot persists a model's attribute map to a versioned SQLite
// database and restores it. The round trip is exact: loading an exported
// snapshot yields a model with an identical attribute map.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentic-research/descry/api"
	"github.com/agentic-research/descry/internal/address"
	"github.com/agentic-research/descry/internal/model"
	"github.com/agentic-research/descry/internal/tree"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS descriptors (
	address TEXT NOT NULL,
	source TEXT NOT NULL,
	found_types TEXT NOT NULL,
	descriptive_type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	regex TEXT NOT NULL DEFAULT '',
	default_value TEXT,
	uniq INTEGER,
	examples TEXT NOT NULL,
	extra TEXT,
	PRIMARY KEY (address, source)
) WITHOUT ROWID;
CREATE TABLE IF NOT EXISTS descriptor_order (
	pos INTEGER PRIMARY KEY,
	address TEXT NOT NULL,
	source TEXT NOT NULL
);
`

// Export writes m to a fresh snapshot database at dbPath. All inserts run in
// a single transaction with prepared statements.
func Export(m *model.Model, dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot export: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	// Exporting into an existing database must not leave rows from a previous
	// model behind; the round trip is exact regardless of what was there.
	for _, table := range []string{"meta", "descriptors", "descriptor_order"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}

	metaStmt, err := tx.Prepare("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = metaStmt.Close() }()

	meta := map[string]string{
		"version":    api.SnapshotVersion,
		"name":       m.Name,
		"snapshot":   uuid.NewString(),
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := metaStmt.Exec(k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	descStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO descriptors
		(address, source, found_types, descriptive_type, description, regex, default_value, uniq, examples, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = descStmt.Close() }()

	orderStmt, err := tx.Prepare("INSERT OR REPLACE INTO descriptor_order (pos, address, source) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer func() { _ = orderStmt.Close() }()

	for pos, d := range m.Descriptors() {
		foundTypes, err := marshalKinds(d.FoundTypes)
		if err != nil {
			return err
		}
		examples, err := json.Marshal(d.Examples)
		if err != nil {
			return fmt.Errorf("serialize examples for %s: %w", d.Address, err)
		}
		var defaultValue, extra any
		if d.Default != nil {
			raw, err := json.Marshal(d.Default)
			if err != nil {
				return fmt.Errorf("serialize default for %s: %w", d.Address, err)
			}
			defaultValue = string(raw)
		}
		if d.Extra != nil {
			raw, err := json.Marshal(d.Extra)
			if err != nil {
				return fmt.Errorf("serialize extra for %s: %w", d.Address, err)
			}
			extra = string(raw)
		}
		var uniq any
		if d.Unique != nil {
			if *d.Unique {
				uniq = int64(1)
			} else {
				uniq = int64(0)
			}
		}
		addrText := d.Address.String()
		if _, err := descStmt.Exec(addrText, d.Source, foundTypes, d.DescriptiveType, d.Description, d.Regex, defaultValue, uniq, string(examples), extra); err != nil {
			return fmt.Errorf("insert descriptor %s: %w", addrText, err)
		}
		if _, err := orderStmt.Exec(pos, addrText, d.Source); err != nil {
			return fmt.Errorf("insert order %s: %w", addrText, err)
		}
	}

	return tx.Commit()
}

// Load restores a model from a snapshot database.
func Load(dbPath string) (*model.Model, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	var version, name string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version); err != nil {
		return nil, fmt.Errorf("read snapshot version: %w", err)
	}
	if version != api.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q (want %q)", version, api.SnapshotVersion)
	}
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'name'").Scan(&name); err != nil {
		return nil, fmt.Errorf("read snapshot name: %w", err)
	}

	rows, err := db.Query(`
		SELECT d.address, d.source, d.found_types, d.descriptive_type, d.description,
		       d.regex, d.default_value, d.uniq, d.examples, d.extra
		FROM descriptor_order o
		JOIN descriptors d ON d.address = o.address AND d.source = o.source
		ORDER BY o.pos
	`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	m := model.New(name)
	for rows.Next() {
		var (
			addrText, source, foundTypes, descriptiveType, description, regex, examples string
			defaultValue, extra                                                         sql.NullString
			uniq                                                                        sql.NullInt64
		)
		if err := rows.Scan(&addrText, &source, &foundTypes, &descriptiveType, &description, &regex, &defaultValue, &uniq, &examples, &extra); err != nil {
			return nil, fmt.Errorf("scan descriptor row: %w", err)
		}
		addr, err := address.Parse(addrText)
		if err != nil {
			return nil, fmt.Errorf("snapshot holds %q: %w", addrText, err)
		}
		d := &model.Descriptor{
			Address:         addr,
			Source:          source,
			Sources:         []string{source},
			DescriptiveType: descriptiveType,
			Description:     description,
			Regex:           regex,
		}
		if d.FoundTypes, err = unmarshalKinds(foundTypes); err != nil {
			return nil, fmt.Errorf("descriptor %s: %w", addrText, err)
		}
		if err := json.Unmarshal([]byte(examples), &d.Examples); err != nil {
			return nil, fmt.Errorf("descriptor %s examples: %w", addrText, err)
		}
		if defaultValue.Valid {
			if err := json.Unmarshal([]byte(defaultValue.String), &d.Default); err != nil {
				return nil, fmt.Errorf("descriptor %s default: %w", addrText, err)
			}
		}
		if extra.Valid {
			if err := json.Unmarshal([]byte(extra.String), &d.Extra); err != nil {
				return nil, fmt.Errorf("descriptor %s extra: %w", addrText, err)
			}
		}
		if uniq.Valid {
			u := uniq.Int64 != 0
			d.Unique = &u
		}
		m.Restore(d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return m, nil
}

func marshalKinds(kinds []tree.Kind) (string, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("serialize found types: %w", err)
	}
	return string(raw), nil
}

func unmarshalKinds(raw string) ([]tree.Kind, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("parse found types: %w", err)
	}
	kinds := make([]tree.Kind, len(names))
	for i, n := range names {
		kinds[i] = tree.KindFromString(n)
	}
	return kinds, nil
}

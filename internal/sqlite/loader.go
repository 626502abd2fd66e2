package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// loadJSONL copies the records of t's JSONL file into SQLite inside tx.
// Malformed lines, records whose fields do not fit their columns and
// records that violate the primary key are skipped and counted. Records
// without an id get a fresh one.
func loadJSONL(tx *sql.Tx, t *table, path string) (loaded, skipped int, err error) {
	records, skipped, err := readJSONL(path)
	if err != nil {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, skipped, nil
	}

	stmt, err := tx.Prepare(insertSQL(t))
	if err != nil {
		return 0, 0, fmt.Errorf("preparing insert for %s: %w", t.name, err)
	}
	defer stmt.Close()

	for _, obj := range records {
		id, values, err := decodeRecord(t, obj)
		if err != nil {
			skipped++
			continue
		}
		if id == "" {
			id = newID()
		}
		args, err := bindValues(id, values)
		if err != nil {
			skipped++
			continue
		}
		if _, err := stmt.Exec(args...); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	return loaded, skipped, nil
}

// querier reads rows from a *sql.DB or a *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// exportJSONL rewrites t's JSONL file from the rows q can see.
func exportJSONL(q querier, t *table, path string) error {
	rows, err := q.Query(exportSQL(t))
	if err != nil {
		return fmt.Errorf("reading %s: %w", t.name, err)
	}
	defer rows.Close()

	var records [][]byte
	for rows.Next() {
		var id string
		raw := make([]any, len(t.columns))
		dest := make([]any, len(t.columns)+1)
		dest[0] = &id
		for i := range raw {
			dest[i+1] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scanning %s: %w", t.name, err)
		}
		values := make([]types.Value, len(t.columns))
		for i, c := range t.columns {
			v, err := decodeColumn(c.kind, raw[i])
			if err != nil {
				return fmt.Errorf("decoding %s.%s: %w", t.name, c.name, err)
			}
			values[i] = v
		}
		rec, err := encodeRecord(t, id, values)
		if err != nil {
			return fmt.Errorf("encoding %s row %s: %w", t.name, id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", t.name, err)
	}
	return writeJSONL(path, records)
}

// bindValues returns the insert arguments for a decoded record.
func bindValues(id string, values []types.Value) ([]any, error) {
	r := &argReader{args: []any{id}}
	for _, v := range values {
		if err := r.value(v); err != nil {
			return nil, err
		}
	}
	return r.args, nil
}

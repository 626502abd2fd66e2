package sqlite

import (
	"strings"

	"github.com/mesh-intelligence/ents/pkg/types"
)

// idColumn holds the row identity. Property names may not use it.
const idColumn = "_id"

// column is one property slot of a table: the property name and the
// primitive kind stored in it.
type column struct {
	name string
	kind types.Kind
}

// table describes the SQLite table that backs one entity type. Columns
// follow the entity's declared property order.
type table struct {
	name    string
	columns []column
}

// quoteIdent quotes a table or column name for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnType maps a primitive kind to SQLite column affinity.
func columnType(k types.Kind) string {
	switch k {
	case types.KindDouble:
		return "REAL"
	case types.KindChar, types.KindString:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

func createTableSQL(t *table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quoteIdent(t.name))
	b.WriteString(" (")
	b.WriteString(quoteIdent(idColumn))
	b.WriteString(" TEXT PRIMARY KEY")
	for _, c := range t.columns {
		b.WriteString(", ")
		b.WriteString(quoteIdent(c.name))
		b.WriteByte(' ')
		b.WriteString(columnType(c.kind))
		b.WriteString(" NOT NULL")
	}
	b.WriteString(")")
	return b.String()
}

// insertSQL lists the id column and then every property column; the
// caller binds the id first and the property values in the same order.
func insertSQL(t *table) string {
	names := make([]string, 0, len(t.columns)+1)
	names = append(names, quoteIdent(idColumn))
	for _, c := range t.columns {
		names = append(names, quoteIdent(c.name))
	}
	return "INSERT INTO " + quoteIdent(t.name) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + placeholders(len(names)) + ")"
}

// selectSQL reads every property column of the first row (in insertion
// order) whose where columns equal the bound values. An empty where list
// matches any row.
func selectSQL(t *table, where []string) string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = quoteIdent(c.name)
	}
	return "SELECT " + strings.Join(names, ", ") + " FROM " + quoteIdent(t.name) +
		whereClause(where) + " ORDER BY rowid LIMIT 1"
}

// updateSQL assigns the set columns on the first row matching where.
func updateSQL(t *table, set, where []string) string {
	assigns := make([]string, len(set))
	for i, name := range set {
		assigns[i] = quoteIdent(name) + " = ?"
	}
	return "UPDATE " + quoteIdent(t.name) + " SET " + strings.Join(assigns, ", ") +
		" WHERE " + firstMatch(t, where)
}

// deleteSQL removes the first row matching where.
func deleteSQL(t *table, where []string) string {
	return "DELETE FROM " + quoteIdent(t.name) + " WHERE " + firstMatch(t, where)
}

// exportSQL reads all rows, id first, in insertion order.
func exportSQL(t *table) string {
	names := make([]string, 0, len(t.columns)+1)
	names = append(names, quoteIdent(idColumn))
	for _, c := range t.columns {
		names = append(names, quoteIdent(c.name))
	}
	return "SELECT " + strings.Join(names, ", ") + " FROM " + quoteIdent(t.name) + " ORDER BY rowid"
}

// firstMatch restricts a mutation to a single row: the oldest one
// matching where.
func firstMatch(t *table, where []string) string {
	return quoteIdent(idColumn) + " = (SELECT " + quoteIdent(idColumn) + " FROM " +
		quoteIdent(t.name) + whereClause(where) + " ORDER BY rowid LIMIT 1)"
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	conds := make([]string, len(where))
	for i, name := range where {
		conds[i] = quoteIdent(name) + " = ?"
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Package dialect describes the SQL variants askdb can target. A Dialect is
// resolved once at startup and carries everything downstream stages need:
// the driver name, the catalog query for introspection, and the hints the
// prompt builder feeds the model.
package dialect

import (
	"fmt"
	"strings"
)

type Dialect struct {
	// Name as it appears in config and in prompts ("PostgreSQL", "MySQL").
	Name       string
	ConfigName string
	// Driver is the database/sql driver to open connections with.
	Driver string
	// CatalogQuery lists table/column/type triples for the introspector,
	// scoped to the connected database and ordered by table then position.
	CatalogQuery string
	// QuoteRule and SyntaxNote are embedded verbatim in the SQL prompt.
	QuoteRule  string
	SyntaxNote string
}

var postgres = Dialect{
	Name:       "PostgreSQL",
	ConfigName: "postgresql",
	Driver:     "pgx",
	CatalogQuery: `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`,
	QuoteRule:  `Use double quotes for table and column names`,
	SyntaxNote: `Use proper PostgreSQL syntax`,
}

var mysql = Dialect{
	Name:       "MySQL",
	ConfigName: "mysql",
	Driver:     "mysql",
	CatalogQuery: `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`,
	QuoteRule:  "Use backticks (`) for table and column names, not double quotes",
	SyntaxNote: "Use proper MySQL syntax. Do not use double quotes for identifiers. Use the table and column names exactly as they appear in the schema",
}

// ByName resolves a configured dialect selector. Unknown selectors are a
// startup error, not a per-request one.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case postgres.ConfigName:
		return postgres, nil
	case mysql.ConfigName:
		return mysql, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported dialect: %q", name)
	}
}

// NormalizeForClassification rewrites dialect-specific identifier quoting
// into the standard form the statement classifier's grammar accepts. The
// executed SQL is never rewritten, only the copy handed to the classifier.
func (d Dialect) NormalizeForClassification(sql string) string {
	if d.ConfigName != mysql.ConfigName {
		return sql
	}
	return strings.ReplaceAll(sql, "`", `"`)
}

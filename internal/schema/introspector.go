// Package schema builds the human-readable schema description that grounds
// SQL generation. The catalog is re-read on every request so schema drift is
// always reflected; nothing here is cached.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/dialect"
)

// Table is one table's rendering input: column entries formatted as
// "name (type)" in catalog ordinal order.
type Table struct {
	Name    string
	Columns []string
}

// Description is an ordered table list, sorted by table name as returned by
// the catalog query. It is immutable once built.
type Description struct {
	Tables []Table
}

func (d Description) Empty() bool {
	return len(d.Tables) == 0
}

// Render produces the text block embedded in prompts and returned by the
// fetch-schema endpoint: one block per table, blank-line separated.
func (d Description) Render() string {
	blocks := make([]string, 0, len(d.Tables))
	for _, table := range d.Tables {
		blocks = append(blocks, fmt.Sprintf("Table: %s\nColumns: %s", table.Name, strings.Join(table.Columns, ", ")))
	}
	return strings.Join(blocks, "\n\n")
}

type Introspector struct {
	db           *sql.DB
	catalogQuery string
}

func NewIntrospector(db *sql.DB, d dialect.Dialect) *Introspector {
	return &Introspector{db: db, catalogQuery: d.CatalogQuery}
}

// Describe runs the dialect's catalog query and groups rows by table,
// preserving the catalog's ordering.
func (i *Introspector) Describe(ctx context.Context) (Description, error) {
	rows, err := i.db.QueryContext(ctx, i.catalogQuery)
	if err != nil {
		return Description{}, fmt.Errorf("query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var description Description
	index := map[string]int{}
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return Description{}, fmt.Errorf("scan catalog row: %w", err)
		}
		entry := fmt.Sprintf("%s (%s)", columnName, dataType)
		if at, ok := index[tableName]; ok {
			description.Tables[at].Columns = append(description.Tables[at].Columns, entry)
			continue
		}
		index[tableName] = len(description.Tables)
		description.Tables = append(description.Tables, Table{Name: tableName, Columns: []string{entry}})
	}
	if err := rows.Err(); err != nil {
		return Description{}, fmt.Errorf("read catalog rows: %w", err)
	}

	return description, nil
}

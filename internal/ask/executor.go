package ask

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/askdb/askdb/internal/results"
)

// Executor runs validated SQL inside a read-only transaction and maps driver
// rows into ordered records.
type Executor struct {
	db *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// Execute opens a read-only transaction, runs the query, and returns every
// row as a Record preserving the database's column order. The transaction is
// committed after a clean read so the connection is released in a known
// state; any failure rolls back.
func (e *Executor) Execute(ctx context.Context, query string) ([]results.Record, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var records []results.Record
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var record results.Record
		for i, column := range columns {
			record.Set(column, normalizeValue(values[i]))
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return records, nil
}

// normalizeValue turns driver byte slices into strings so rows render and
// serialize as text instead of base64 blobs.
func normalizeValue(value any) any {
	if raw, ok := value.([]byte); ok {
		return string(raw)
	}
	return value
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talent-pipeline/internal/frame"
)

// ReplaceTable swaps the contents of table for the rows of f in one
// transaction: the table and any missing columns are created, every
// existing row is deleted, then f is inserted.
func (d *DB) ReplaceTable(ctx context.Context, table string, f *frame.Frame) (int, error) {
	if !validTable(table) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if f == nil {
		f = &frame.Frame{}
	}
	stored, err := storedColumns(f.Columns)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", table, err)
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := createTable(tx, table); err != nil {
		return 0, fmt.Errorf("create %s: %w", table, err)
	}
	if err := ensureColumns(tx, table, stored); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s;`, quoteIdent(table))); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	if len(f.Columns) > 0 && f.Len() > 0 {
		quoted := make([]string, len(stored))
		for i, c := range stored {
			quoted[i] = quoteIdent(c)
		}
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Columns)), ",")
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`,
			quoteIdent(table), strings.Join(quoted, ", "), marks))
		if err != nil {
			return 0, fmt.Errorf("prepare insert %s: %w", table, err)
		}
		defer stmt.Close()

		args := make([]any, len(f.Columns))
		for _, r := range f.Rows {
			for i, c := range f.Columns {
				args[i] = sqlValue(r[c])
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return 0, fmt.Errorf("insert %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return f.Len(), nil
}

// ErrDuplicateColumn reports two frame columns that SQLite would treat as
// the same column.
var ErrDuplicateColumn = errors.New("duplicate column")

// storedColumnSuffix marks an export column renamed away from the surrogate
// key.
const storedColumnSuffix = " (export)"

// storedColumns maps frame columns to table columns. SQLite column names are
// case-insensitive, so an export column spelled like the surrogate id is
// stored as "<name> (export)", and names equal under case folding are
// rejected.
func storedColumns(cols []string) ([]string, error) {
	out := make([]string, len(cols))
	seen := make(map[string]string, len(cols))
	for i, c := range cols {
		name := c
		if strings.EqualFold(c, "id") {
			name = c + storedColumnSuffix
		}
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", ErrDuplicateColumn, prev, c)
		}
		seen[key] = c
		out[i] = name
	}
	return out, nil
}

func sqlValue(v any) any {
	if frame.IsNull(v) {
		return nil
	}
	switch t := v.(type) {
	case string, int, int64, float64:
		return t
	case time.Time, *time.Time:
		return frame.Text(t)
	}
	return frame.Text(v)
}

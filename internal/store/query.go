package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"talent-pipeline/internal/frame"
)

var ErrUnknownTable = errors.New("unknown table")

// ColRecruiter is the column AllRows filters on.
const ColRecruiter = "Recruiter"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validTable(name string) bool {
	return identRe.MatchString(name) && name != "runs" && name != "sqlite_sequence"
}

// AllRows returns every row of table, or only the rows whose Recruiter
// equals recruiter when it is non-empty.
func (d *DB) AllRows(ctx context.Context, table, recruiter string) (*frame.Frame, error) {
	if !validTable(table) || !tableExists(d.Pool, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(table))
	var args []any
	if recruiter != "" {
		if !columnExists(d.Pool, table, ColRecruiter) {
			return nil, &frame.MissingColumnError{Columns: []string{ColRecruiter}}
		}
		query += fmt.Sprintf(` WHERE %s = ?`, quoteIdent(ColRecruiter))
		args = append(args, recruiter)
	}
	query += ` ORDER BY id;`

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := frame.New(cols)

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(frame.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out.Rows = append(out.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Tables lists the reporting tables present in the database.
func (d *DB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT name
FROM sqlite_master
WHERE type = 'table' AND name NOT IN ('runs', 'sqlite_sequence')
ORDER BY name;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

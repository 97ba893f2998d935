package store

import (
	"context"
	"fmt"
	"time"
)

type Run struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Status     string `json:"status"`
	RowsLoaded int    `json:"rows_loaded"`
	Error      string `json:"error"`
}

const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

func (d *DB) StartRun(ctx context.Context, id string, at time.Time) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO runs (id, started_at, status)
VALUES (?, ?, ?);`,
		id, at.UTC().Format(time.RFC3339), RunRunning,
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

func (d *DB) FinishRun(ctx context.Context, id string, at time.Time, rowsLoaded int, runErr error) error {
	status, msg := RunOK, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	_, err := d.Pool.ExecContext(ctx, `
UPDATE runs
SET finished_at = ?, status = ?, rows_loaded = ?, error = ?
WHERE id = ?;`,
		at.UTC().Format(time.RFC3339), status, rowsLoaded, msg, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, status, rows_loaded, error
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.RowsLoaded, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

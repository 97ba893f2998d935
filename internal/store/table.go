package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Reporting tables created on open. Their columns are added on first load.
const (
	TableOffers     = "offers"
	TableJobs       = "jobs"
	TableFunnel     = "funnel"
	TableApplicants = "applicants"
)

var reportTables = []string{TableOffers, TableJobs, TableFunnel, TableApplicants}

func ReportTables() []string {
	return append([]string(nil), reportTables...)
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	for _, tbl := range reportTables {
		if err := createTable(tx, tbl); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'running',
  rows_loaded INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_runs_started_at
ON runs(started_at);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func createTable(tx execer, tbl string) error {
	_, err := tx.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT
);`, quoteIdent(tbl)))
	return err
}

func tableExists(q queryRower, table string) bool {
	var one int
	err := q.QueryRow(`
SELECT 1
FROM sqlite_master
WHERE type = 'table' AND name = ?
LIMIT 1;
`, table).Scan(&one)
	return err == nil
}

func columnExists(q queryRower, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info(%s)
WHERE name = ? COLLATE NOCASE
LIMIT 1;
`, quoteLiteral(table))

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}

// ensureColumns adds every missing column as TEXT.
func ensureColumns(tx interface {
	execer
	queryRower
}, table string, cols []string) error {
	for _, c := range cols {
		if columnExists(tx, table, c) {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT;`, quoteIdent(table), quoteIdent(c))); err != nil {
			return fmt.Errorf("add column %q to %s: %w", c, table, err)
		}
	}
	return nil
}

// quoteIdent quotes a table or column name. Export headings carry spaces,
// pipes and emoji, so every identifier is quoted.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

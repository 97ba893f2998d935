package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"talent-pipeline/internal/secrets"
)

const testConfig = `log: {level: error}
pipeline:
  run_date: "2025-01-01"
  batches:
    - name: jobs
      kind: jobs
      dataset: jobs
      table: jobs
      date_columns: ["JI | Recruitment Start Date"]
`

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"config.yml":         testConfig,
		"index.json":         `{"jobs": "jobs.csv"}`,
		"warehouse/jobs.csv": "Job ID,JI | Recruitment Start Date,Recruiter\n7,2024-12-01,Kim\n8,2024-12-02,Lee\n",
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func TestRunThenQuery(t *testing.T) {
	dir := dataDir(t)

	out, err := runCLI(t, "", "--data", dir, "run")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 1 tables")

	out, err = runCLI(t, "", "--data", dir, "query", "--recruiter", "Kim", "jobs")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Job ID")
	assert.Contains(t, lines[1], "LUSA-7")

	_, err = runCLI(t, "", "--data", dir, "query", "runs")
	assert.Error(t, err)
}

func TestScrapeSingle(t *testing.T) {
	dir := dataDir(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<table><tr><th>Job ID</th><th>Name</th></tr><tr><td>1</td><td>Analyst</td></tr></table>`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "", "--data", dir, "scrape", "-u", srv.URL, "-n", "jobs.csv", "-o", "raw")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "raw", "jobs.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Job ID,Name\n1,Analyst\n", string(b))
}

func TestScrapeRetriesAfterFirstTry(t *testing.T) {
	dir := dataDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"),
		[]byte("log: {level: error}\nscrape: {retries: 3, backoff_ms: 1}\n"), 0o644))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<table><tr><th>Job ID</th></tr><tr><td>1</td></tr></table>`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "", "--data", dir, "scrape", "-u", srv.URL, "-n", "jobs.csv", "-o", "raw")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestScrapeMapsMissing(t *testing.T) {
	dir := dataDir(t)
	_, err := runCLI(t, "", "--data", dir, "scrape", "-m", "nowhere.json")
	assert.Error(t, err)
}

func TestSecret(t *testing.T) {
	keyring.MockInit()
	dir := dataDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("scrape: {username: kim}\n"), 0o644))

	_, err := runCLI(t, "s3cret\n", "--data", dir, "secret", "set")
	require.NoError(t, err)
	pw, err := secrets.GetPortalPassword("talent-pipeline:portal:kim")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	_, err = runCLI(t, "", "--data", dir, "secret", "delete")
	require.NoError(t, err)

	_, err = runCLI(t, "", "--data", dir, "secret", "rotate")
	assert.Error(t, err)
}

func TestUsage(t *testing.T) {
	_, err := runCLI(t, "")
	assert.Error(t, err)

	_, err = runCLI(t, "", "--data", dataDir(t), "explode")
	assert.ErrorContains(t, err, "unknown command")
}

package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/logger"
)

func TestReadIndex(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "index.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"jobs": "jobs.csv", "offers": ["a.csv", "b.csv"]}`), 0o644))

	ix, err := ReadIndex(p)
	require.NoError(t, err)

	got, err := ix.Paths("jobs")
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs.csv"}, got)

	got, err = ix.Paths("offers")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, got)

	_, err = ix.Paths("funnel")
	assert.ErrorIs(t, err, ErrUnknownLabel)

	require.NoError(t, os.WriteFile(p, []byte(`{"jobs": 3}`), 0o644))
	_, err = ReadIndex(p)
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := "\ufeffPerson ID,University,University,Link to job date,Note\n" +
		"1,Other,MIT,2024-06-01 10:00:00,\n" +
		"2,Yale,,not a date,x\n" +
		"3,short\n"

	f, bad, err := ReadCSV(strings.NewReader(in), ReadOptions{DateColumns: []string{"Link to job date"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Person ID", "University", "University.1", "Link to job date", "Note"}, f.Columns)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "MIT", f.Rows[0]["University.1"])
	assert.Nil(t, f.Rows[0]["Note"])
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), f.Rows[0]["Link to job date"])
	assert.Equal(t, "not a date", f.Rows[1]["Link to job date"])
	assert.Nil(t, f.Rows[1]["University.1"])

	require.Len(t, bad, 1)
	assert.Equal(t, 4, bad[0].Line)
	assert.Equal(t, 2, bad[0].Fields)
}

func TestReadCSVLayoutAndColumns(t *testing.T) {
	in := "Job ID,Date,Skip\n7,03/15/2024,x\n"
	f, _, err := ReadCSV(strings.NewReader(in), ReadOptions{
		Columns:     []string{"Job ID", "Date"},
		DateColumns: []string{"Date"},
		DateLayout:  "01/02/2006",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Job ID", "Date"}, f.Columns)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), f.Rows[0]["Date"])
	_, has := f.Rows[0]["Skip"]
	assert.False(t, has)
}

func TestReadCSVEmpty(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""), ReadOptions{})
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestMangleAvoidsTakenNames(t *testing.T) {
	assert.Equal(t, []string{"A", "A.1", "A.2", "B"}, mangle([]string{"A", "A", "A", "B"}))
	assert.Equal(t, []string{"A", "A.1", "A.2"}, mangle([]string{"A", "A.1", "A"}))
}

func TestWriteCSV(t *testing.T) {
	f := frame.New([]string{"Job ID", "Date", "Days open"},
		frame.Row{"Job ID": "1", "Date": time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Days open": 5},
		frame.Row{"Job ID": "2, b"},
	)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, "Job ID,Date,Days open\n1,2024-01-02,5\n\"2, b\",,\n", buf.String())
}

func TestCatalogLoadConcatAndSave(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("Job ID,Person ID\n1,a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("Job ID,Recruiter\n2,Kim\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.csv"), nil, 0o644))

	var logs bytes.Buffer
	c := NewCatalog(Index{
		"offers": {"a.csv", "b.csv", "empty.csv", "missing.csv"},
		"mart":   {"out/offers.csv"},
	}, logger.New(&logs, "debug").WithField("component", "dataset"))

	f, err := c.Load(dir, "offers", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Job ID", "Person ID", "Recruiter"}, f.Columns)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "Kim", f.Rows[1]["Recruiter"])
	assert.Contains(t, logs.String(), "file is empty")
	assert.Contains(t, logs.String(), "file does not exist")

	require.NoError(t, c.Save(dir, "mart", f))
	b, err := os.ReadFile(filepath.Join(dir, "out", "offers.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Job ID,Person ID,Recruiter\n1,a,\n2,,Kim\n", string(b))

	_, err = c.Load(dir, "nope", ReadOptions{})
	assert.ErrorIs(t, err, ErrUnknownLabel)
}

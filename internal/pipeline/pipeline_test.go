package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/dataset"
	"talent-pipeline/internal/events"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/store"
	"talent-pipeline/internal/transform"
)

const (
	jobsCSV = "Job ID,JI | Recruitment Start Date,Job workflow step,Ad | (Default) Job Title,Recruiter\n" +
		"101,2024-11-01,Closed - Filled,Analyst,Kim\n" +
		"102,2024-12-01,Open - Sourcing,Store Mgr,Lee\n" +
		"102,2024-12-01,Open - Sourcing,Store Mgr,Lee\n"
	offersCSV = "Job ID,Person ID,JI | Recruitment Start Date,Last job step update,Source,Recruiter\n" +
		"101,20,2024-05-01,2024-06-01,Pipeline,Kim\n"
	applicantsCSV = "Person ID,University,University,Link to job date\n" +
		"1,Other,mit,2024-06-01 10:00:00\n" +
		"1,Yale,,2024-05-01 10:00:00\n"
)

type fixture struct {
	dir    string
	cfg    config.Config
	db     *store.DB
	runner *Runner
	hub    *events.Hub
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, "warehouse", "jobs.csv"), jobsCSV)
	write(t, filepath.Join(dir, "warehouse", "offers.csv"), offersCSV)
	write(t, filepath.Join(dir, "warehouse", "applicants.csv"), applicantsCSV)
	write(t, filepath.Join(dir, "index.json"), `{
		"jobs": "jobs.csv",
		"offers": "offers.csv",
		"applicants": ["applicants.csv", "missing.csv"],
		"jobs_mart": "jobs_mart.csv"
	}`)

	p := filepath.Join(dir, "config.yml")
	write(t, p, "app: {data_dir: "+dir+"}\npipeline: {run_date: \"2025-01-01\"}\n")
	cfg, err := config.Load(p)
	require.NoError(t, err)
	cfg.Pipeline.Batches = []config.Batch{
		{Name: "jobs", Kind: config.KindJobs, Dataset: "jobs", Table: store.TableJobs,
			DateColumns: []string{transform.ColStartDate}, Mart: "jobs_mart"},
		{Name: "offers", Kind: config.KindOffers, Dataset: "offers", Table: store.TableOffers,
			ApplicantType: "External", OfferStatus: "Accepted", Pair: true,
			DateColumns: []string{transform.ColStartDate, transform.ColLastStepUpdate}},
		{Name: "applicants", Kind: config.KindApplicants, Dataset: "applicants", Table: store.TableApplicants,
			ApplicantType: "External", DateColumns: []string{transform.ColLinkDate}},
	}
	_, vr := config.NormalizeAndValidate(cfg)
	require.True(t, vr.OK(), vr.Errors)

	db, err := store.Open(cfg.Resolve(cfg.App.DBPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ix, err := dataset.ReadIndex(cfg.Resolve(cfg.Datasets.IndexFile))
	require.NoError(t, err)
	quiet := logger.New(&bytes.Buffer{}, "error")

	hub := events.NewHub()
	r := New(cfg, db, dataset.NewCatalog(ix, quiet.WithField("component", "dataset")), hub)
	r.Log = quiet.WithField("component", "pipeline")
	r.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	return &fixture{dir: dir, cfg: cfg, db: db, runner: r, hub: hub}
}

func TestRunLoadsTables(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sub := fx.hub.Subscribe()

	res, err := fx.runner.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, map[string]int{"jobs": 2, "offers": 1, "applicants": 1}, res.Tables)
	assert.Len(t, res.Batches, 3)

	jobs, err := fx.db.AllRows(ctx, store.TableJobs, "")
	require.NoError(t, err)
	require.Equal(t, 2, jobs.Len())
	assert.Equal(t, "101", jobs.Rows[0][transform.ColJobID])
	assert.Equal(t, "61", jobs.Rows[0][transform.ColDaysOpen])
	assert.Equal(t, "60 - 90 Days", jobs.Rows[0][transform.ColDaysRange])
	assert.Equal(t, "Manager", jobs.Rows[1][transform.ColLevel])

	offers, err := fx.db.AllRows(ctx, store.TableOffers, "Kim")
	require.NoError(t, err)
	require.Equal(t, 1, offers.Len())
	assert.Equal(t, "101-20", offers.Rows[0][transform.ColPair])
	assert.Equal(t, "31", offers.Rows[0][transform.ColTimeInProcess])
	assert.Equal(t, "Yes", offers.Rows[0][transform.ColPipeline])

	apps, err := fx.db.AllRows(ctx, store.TableApplicants, "")
	require.NoError(t, err)
	require.Equal(t, 1, apps.Len())
	assert.Equal(t, "MIT", apps.Rows[0][transform.ColUniversity])
	assert.Equal(t, "2024-06-01", apps.Rows[0][transform.ColDate])

	mart, err := os.ReadFile(filepath.Join(fx.dir, "mart", "jobs_mart.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(mart), "LUSA-101")

	st := fx.runner.Status()
	assert.False(t, st.Running)
	assert.Equal(t, res.RunID, st.RunID)
	assert.Equal(t, 4, st.LastRows)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)

	runs, err := fx.db.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunOK, runs[0].Status)

	var types []string
	for len(sub) > 0 {
		types = append(types, <-sub)
	}
	require.NotEmpty(t, types)
	assert.Contains(t, types[0], events.TypeRunStarted)
	assert.Contains(t, types[len(types)-1], events.TypeRunFinished)
}

func TestRunIsRepeatable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.runner.Run(ctx)
	require.NoError(t, err)
	res, err := fx.runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Tables["jobs"])

	jobs, err := fx.db.AllRows(ctx, store.TableJobs, "")
	require.NoError(t, err)
	assert.Equal(t, 2, jobs.Len())
}

func TestRunFailsBeforeWriting(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.runner.Run(ctx)
	require.NoError(t, err)

	fx.runner.Cfg.Pipeline.Batches[2].ApplicantType = "Contractor"
	_, err = fx.runner.Run(ctx)
	assert.ErrorIs(t, err, transform.ErrInvalidChoice)

	// Earlier loads stay in place.
	jobs, err := fx.db.AllRows(ctx, store.TableJobs, "")
	require.NoError(t, err)
	assert.Equal(t, 2, jobs.Len())

	st := fx.runner.Status()
	assert.Contains(t, st.LastError, "Contractor")
	assert.NotEmpty(t, st.LastOkAt)
}

func TestRunBusy(t *testing.T) {
	fx := newFixture(t)

	held := flock.New(fx.cfg.Resolve(lockFile))
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	_, err = fx.runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRunReadsSource(t *testing.T) {
	fx := newFixture(t)
	cfg := fx.cfg
	cfg.Pipeline.Batches = fx.cfg.Pipeline.Batches[:1]
	fx.runner.Source = func() config.Config { return cfg }

	res, err := fx.runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"jobs": 2}, res.Tables)
}

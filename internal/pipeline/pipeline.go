package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/dataset"
	"talent-pipeline/internal/events"
	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/store"
)

// ErrBusy is returned when another run holds the data directory lock.
var ErrBusy = errors.New("a pipeline run is already in progress")

const lockFile = ".talentpipe.lock"

type BatchResult struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

type Result struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Batches    []BatchResult  `json:"batches"`
	Tables     map[string]int `json:"tables"`
}

// Status is the last known state of the runner, safe to serve as JSON.
type Status struct {
	Running   bool   `json:"running"`
	RunID     string `json:"run_id"`
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastRows  int    `json:"last_rows"`
}

type Runner struct {
	Cfg config.Config
	// Source, when set, supplies the config for each run instead of Cfg.
	Source func() config.Config

	DB      *store.DB
	Catalog *dataset.Catalog
	Hub     *events.Hub
	Log     *logrus.Entry
	Now     func() time.Time

	status atomic.Value // Status
}

func New(cfg config.Config, db *store.DB, catalog *dataset.Catalog, hub *events.Hub) *Runner {
	r := &Runner{
		Cfg:     cfg,
		DB:      db,
		Catalog: catalog,
		Hub:     hub,
		Log:     logger.Component("pipeline"),
		Now:     time.Now,
	}
	r.status.Store(Status{})
	return r
}

func (r *Runner) config() config.Config {
	if r.Source != nil {
		return r.Source()
	}
	return r.Cfg
}

func (r *Runner) Status() Status {
	return r.status.Load().(Status)
}

// Run loads every configured batch, normalizes the batches concurrently,
// then replaces each target table with the concatenation of its batches.
// Nothing is written unless every batch normalizes.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	cfg := r.config()
	lock := flock.New(cfg.Resolve(lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return Result{}, ErrBusy
	}
	defer func() { _ = lock.Unlock() }()

	res := Result{RunID: uuid.NewString(), StartedAt: r.Now().UTC(), Tables: map[string]int{}}
	log := r.Log.WithField("run_id", res.RunID)

	prev := r.Status()
	r.status.Store(Status{
		Running:   true,
		RunID:     res.RunID,
		LastRunAt: res.StartedAt.Format(time.RFC3339),
		LastOkAt:  prev.LastOkAt,
	})
	if err := r.DB.StartRun(ctx, res.RunID, res.StartedAt); err != nil {
		log.WithError(err).Warn("could not record run start")
	}
	r.Hub.Emit(res.RunID, events.TypeRunStarted, map[string]any{"batches": len(cfg.Pipeline.Batches)})
	log.Info("run started")

	total, err := r.run(ctx, cfg, &res, log)
	res.FinishedAt = r.Now().UTC()

	if ferr := r.DB.FinishRun(context.WithoutCancel(ctx), res.RunID, res.FinishedAt, total, err); ferr != nil {
		log.WithError(ferr).Warn("could not record run finish")
	}

	next := r.Status()
	next.Running = false
	next.LastRows = total
	if err != nil {
		next.LastError = err.Error()
		log.WithError(err).Error("run failed")
		r.Hub.Emit(res.RunID, events.TypeRunFinished, map[string]any{"ok": false, "error": err.Error()})
	} else {
		next.LastError = ""
		next.LastOkAt = res.FinishedAt.Format(time.RFC3339)
		log.WithField("rows", total).Info("run finished")
		r.Hub.Emit(res.RunID, events.TypeRunFinished, map[string]any{"ok": true, "rows": total, "tables": res.Tables})
	}
	r.status.Store(next)
	return res, err
}

func (r *Runner) run(ctx context.Context, cfg config.Config, res *Result, log *logrus.Entry) (int, error) {
	runDate, err := cfg.RunDate(r.Now())
	if err != nil {
		return 0, fmt.Errorf("run date: %w", err)
	}
	levels, err := cfg.LevelRules()
	if err != nil {
		return 0, err
	}
	e := env{runDate: runDate, levels: levels, pipelineFields: cfg.Pipeline.PipelineFields}

	batches := cfg.Pipeline.Batches
	frames := make([]*frame.Frame, len(batches))
	srcDir := cfg.Resolve(cfg.Datasets.Dir)

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in, err := r.Catalog.Load(srcDir, b.Dataset, dataset.ReadOptions{
				DateColumns: b.DateColumns,
				DateLayout:  cfg.Datasets.DateLayout,
			})
			if err != nil {
				return fmt.Errorf("batch %s: %w", b.Name, err)
			}
			out, err := normalize(b, in, e)
			if err != nil {
				return err
			}
			frames[i] = out
			log.WithFields(logrus.Fields{"batch": b.Name, "in": in.Len(), "out": out.Len()}).Debug("batch normalized")
			r.Hub.Emit(res.RunID, events.TypeBatchLoaded, BatchResult{Name: b.Name, Table: b.Table, Rows: out.Len()})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Tables keep the order of their first batch.
	var order []string
	byTable := map[string][]*frame.Frame{}
	for i, b := range batches {
		if _, seen := byTable[b.Table]; !seen {
			order = append(order, b.Table)
		}
		byTable[b.Table] = append(byTable[b.Table], frames[i])
		res.Batches = append(res.Batches, BatchResult{Name: b.Name, Table: b.Table, Rows: frames[i].Len()})
	}

	total := 0
	for _, tbl := range order {
		n, err := r.DB.ReplaceTable(ctx, tbl, frame.Concat(byTable[tbl]...))
		if err != nil {
			return total, fmt.Errorf("load %s: %w", tbl, err)
		}
		res.Tables[tbl] = n
		total += n
		r.Hub.Emit(res.RunID, events.TypeTableLoaded, map[string]any{"table": tbl, "rows": n})
	}

	martDir := cfg.Resolve(cfg.Datasets.MartDir)
	for i, b := range batches {
		if b.Mart == "" {
			continue
		}
		if err := r.Catalog.Save(martDir, b.Mart, frames[i]); err != nil {
			return total, fmt.Errorf("mart %s: %w", b.Mart, err)
		}
	}
	return total, nil
}

// Command talentpipe scrapes recruiting reports, normalizes them and loads
// the results into a local SQLite store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/dataset"
	"talent-pipeline/internal/events"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/store"
)

const usage = `usage: talentpipe [--data DIR] <command> [flags]

commands:
  scrape   fetch report tables into CSV files
  run      normalize configured batches and load the store
  serve    serve the report API (and run on a schedule)
  query    print a store table as CSV
  secret   set or delete the portal password
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Log.WithError(err).Error("talentpipe failed")
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("talentpipe", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	dataDir := global.String("data", os.Getenv("TALENTPIPE_DATA_DIR"), "data directory (config, store, datasets)")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	a, err := bootstrap(*dataDir)
	if err != nil {
		return err
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "scrape":
		return a.scrape(ctx, cmdArgs, stderr)
	case "run":
		return a.runOnce(ctx, stdout)
	case "serve":
		return a.serve(ctx, cmdArgs, stderr)
	case "query":
		return a.query(ctx, cmdArgs, stdout, stderr)
	case "secret":
		return a.secret(cmdArgs, stdin, stderr)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app is the loaded configuration shared by every command.
type app struct {
	dataDir string
	cfgPath string
	cfgVal  atomic.Value // config.Config
}

func bootstrap(dataDir string) (*app, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "."
	}
	cfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		return nil, fmt.Errorf("config bootstrap failed: %w", err)
	}
	a := &app{dataDir: dataDir, cfgPath: cfgPath}
	cfg, err := a.loadCfg()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level)

	_, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		logger.Component("config").Warn(w)
	}
	if err := vr.Err(); err != nil {
		return nil, err
	}
	a.cfgVal.Store(cfg)
	return a, nil
}

// loadCfg reads the user config. A data_dir left at "." follows --data.
func (a *app) loadCfg() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("config load failed (%s): %w", a.cfgPath, err)
	}
	if d := strings.TrimSpace(cfg.App.DataDir); d == "" || d == "." {
		cfg.App.DataDir = a.dataDir
	}
	return cfg, nil
}

func (a *app) cfg() config.Config {
	return a.cfgVal.Load().(config.Config)
}

// runner opens the store and builds a pipeline runner over it.
func (a *app) runner(hub *events.Hub) (*pipeline.Runner, *store.DB, error) {
	cfg := a.cfg()
	ix, err := dataset.ReadIndex(cfg.Resolve(cfg.Datasets.IndexFile))
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.Resolve(cfg.App.DBPath))
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(cfg, db, dataset.NewCatalog(ix, nil), hub), db, nil
}

func (a *app) runOnce(ctx context.Context, stdout io.Writer) error {
	r, db, err := a.runner(nil)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := r.Run(ctx)
	if err != nil {
		return err
	}
	for _, b := range res.Batches {
		fmt.Fprintf(stdout, "%-28s -> %-12s %6d rows\n", b.Name, b.Table, b.Rows)
	}
	fmt.Fprintf(stdout, "run %s loaded %d tables\n", res.RunID, len(res.Tables))
	return nil
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

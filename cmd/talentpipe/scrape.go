package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/scrape"
	"talent-pipeline/internal/scrape/util"
	"talent-pipeline/internal/secrets"
)

// scrape runs single mode when -u is given, otherwise every entry of the
// JSON url maps.
func (a *app) scrape(ctx context.Context, args []string, stderr io.Writer) error {
	cfg := a.cfg()

	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rawURL := fs.String("u", "", "report URL (single mode)")
	name := fs.String("n", "", "output file name (single mode)")
	outDir := fs.String("o", cfg.Scrape.OutputDir, "output directory")
	inDir := fs.String("i", cfg.Scrape.InputDir, "directory holding the url maps")
	var maps stringList
	fs.Var(&maps, "m", "url map file name, repeatable")
	disableSSL := fs.Bool("disable-ssl", cfg.Scrape.DisableSSL, "skip TLS certificate verification")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth, err := secrets.BasicAuth(cfg)
	if err != nil {
		return err
	}
	client := scrape.NewClient(scrape.ClientOptions{
		Attempts:           cfg.Attempts(),
		Backoff:            cfg.Backoff(),
		Timeout:            cfg.Timeout(),
		InsecureSkipVerify: *disableSSL,
		Limiter:            util.NewHostLimiter(cfg.Scrape.RatePerSecond, cfg.Scrape.Burst),
		Auth:               auth,
	})
	s := scrape.New(client, nil)
	out := cfg.Resolve(*outDir)

	if *rawURL != "" {
		return s.Single(ctx, *rawURL, out, *name)
	}

	if len(maps) == 0 {
		maps = cfg.Scrape.URLMaps
	}
	targets, err := scrape.Targets(cfg.Resolve(*inDir), maps)
	if err != nil {
		return err
	}
	sum := s.Run(ctx, out, targets, cfg.Scrape.Workers)
	logger.Component("scrape").
		WithField("written", len(sum.Written)).
		WithField("failed", len(sum.Failed)).
		Info("scrape finished")
	if len(sum.Failed) > 0 {
		return fmt.Errorf("%d of %d reports failed", len(sum.Failed), len(targets))
	}
	return nil
}

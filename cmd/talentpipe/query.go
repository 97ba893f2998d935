package main

import (
	"context"
	"errors"
	"flag"
	"io"

	"talent-pipeline/internal/dataset"
	"talent-pipeline/internal/store"
)

func (a *app) query(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	recruiter := fs.String("recruiter", "", "only rows whose Recruiter matches")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: talentpipe query [--recruiter NAME] <table>")
	}

	cfg := a.cfg()
	db, err := store.Open(cfg.Resolve(cfg.App.DBPath))
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := db.AllRows(ctx, fs.Arg(0), *recruiter)
	if err != nil {
		return err
	}
	return dataset.WriteCSV(stdout, f)
}

package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"talent-pipeline/internal/scrape/util"
)

var ErrNotJSONMap = errors.New("unsupported mapping; pass a JSON file of file_name -> URL")

// Target is one report to fetch and the CSV file it lands in.
type Target struct {
	Name string
	URL  string
}

// Summary is the outcome of a multi-report run.
type Summary struct {
	Written []string          `json:"written"`
	Failed  map[string]string `json:"failed"`
}

// ReadURLMap reads a JSON object of file name -> report URL.
func ReadURLMap(path string) (map[string]string, error) {
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("%s: %w", path, ErrNotJSONMap)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s could not be located: %w", path, err)
		}
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Targets collects the entries of every map under inputDir. Within a map,
// entries are ordered by name; a name seen in an earlier map wins.
func Targets(inputDir string, maps []string) ([]Target, error) {
	var out []Target
	seen := map[string]bool{}
	for _, m := range maps {
		urls, err := ReadURLMap(filepath.Join(inputDir, m))
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(urls))
		for n := range urls {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			file := util.CSVName(n)
			if file == "" || seen[file] {
				continue
			}
			seen[file] = true
			out = append(out, Target{Name: file, URL: urls[n]})
		}
	}
	return out, nil
}

// Single fetches one report into outDir/name.
func (s *Scraper) Single(ctx context.Context, rawURL, outDir, name string) error {
	if rawURL == "" {
		return errors.New("url is required for single ingestion mode")
	}
	file := filepath.Base(name)
	if name == "" || file == "." {
		return errors.New("file name is required for single ingestion mode")
	}
	return s.Ingest(ctx, rawURL, filepath.Join(outDir, file))
}

// Run fetches every target into outDir with at most workers downloads in
// flight. A failed target is logged and recorded; it does not stop the rest.
func (s *Scraper) Run(ctx context.Context, outDir string, targets []Target, workers int) Summary {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		sum = Summary{Failed: map[string]string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			target := filepath.Join(outDir, t.Name)
			err := s.Ingest(gctx, t.URL, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.Log.WithFields(logrus.Fields{"file": t.Name, "url": util.RedactURL(t.URL)}).
					WithError(err).Error("the data cannot be ingested")
				sum.Failed[t.Name] = err.Error()
				return nil
			}
			sum.Written = append(sum.Written, target)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(sum.Written)
	return sum
}

package scrape

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/scrape/util"
)

// Scraper downloads HTML report tables and stores them as CSV.
type Scraper struct {
	Client *Client
	Log    *logrus.Entry
}

func New(c *Client, log *logrus.Entry) *Scraper {
	if log == nil {
		log = logger.Component("scrape")
	}
	return &Scraper{Client: c, Log: log}
}

// Ingest fetches the table at rawURL and writes it to target. A page with
// no content still produces a file, left empty.
func (s *Scraper) Ingest(ctx context.Context, rawURL, target string) error {
	body, err := s.Client.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	t, err := ExtractTable(bytes.NewReader(body))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if t.Empty() {
		s.Log.WithFields(logrus.Fields{"path": target, "url": util.RedactURL(rawURL)}).
			Warn("page returned empty content; writing empty file")
		return os.WriteFile(target, nil, 0o644)
	}
	if err := WriteTable(target, t); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	s.Log.WithFields(logrus.Fields{"path": target, "rows": len(t.Rows)}).Info("table saved")
	return nil
}

// WriteTable writes the headings then every row as excel-dialect CSV.
func WriteTable(path string, t Table) error {
	tmp := path + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(fh)
	if err := cw.Write(t.Headings); err != nil {
		_ = fh.Close()
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		_ = fh.Close()
		return err
	}
	if err := fh.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

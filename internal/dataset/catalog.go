package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/logger"
)

// Catalog resolves dataset labels through an Index and moves frames in and
// out of CSV files.
type Catalog struct {
	Index Index
	Log   *logrus.Entry
}

func NewCatalog(ix Index, log *logrus.Entry) *Catalog {
	if log == nil {
		log = logger.Component("dataset")
	}
	return &Catalog{Index: ix, Log: log}
}

// Load reads every file under label from dir and concatenates them. Missing
// or empty files contribute nothing and are logged.
func (c *Catalog) Load(dir, label string, opts ReadOptions) (*frame.Frame, error) {
	paths, err := c.Index.Paths(label)
	if err != nil {
		return nil, err
	}

	frames := make([]*frame.Frame, 0, len(paths))
	for _, p := range paths {
		full := filepath.Join(dir, p)
		f, err := c.readFile(full, opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", label, err)
		}
		frames = append(frames, f)
	}
	out := frame.Concat(frames...)
	c.Log.WithFields(logrus.Fields{"label": label, "files": len(paths), "rows": out.Len()}).Debug("dataset loaded")
	return out, nil
}

func (c *Catalog) readFile(path string, opts ReadOptions) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		c.Log.WithField("path", path).Warn("file does not exist; using empty frame")
		return frame.New(nil), nil
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, bad, err := ReadCSV(fh, opts)
	if errors.Is(err, ErrEmptyFile) {
		c.Log.WithField("path", path).Warn("file is empty; using empty frame")
		return frame.New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, b := range bad {
		c.Log.WithFields(logrus.Fields{"path": path, "line": b.Line, "fields": b.Fields}).Warn("skipping bad line")
	}
	return f, nil
}

// Save writes f to the first file of label under dir.
func (c *Catalog) Save(dir, label string, f *frame.Frame) error {
	paths, err := c.Index.Paths(label)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, paths[0])
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp := target + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := WriteCSV(fh, f); err != nil {
		_ = fh.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("save %s: %w", label, err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}

package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const savedHeader = "# talent-pipeline config; written by talentpipe, comments are not kept.\n"

// SaveAtomic validates cfg and replaces path with it. The temp file is
// synced before the rename, and the file it replaces is kept as path.bak.
func SaveAtomic(path string, cfg Config) error {
	normalized, vr := NormalizeAndValidate(cfg)
	if err := vr.Err(); err != nil {
		return err
	}
	body, err := yaml.Marshal(&normalized)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := tmp.WriteString(savedHeader); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}

	if _, err := os.Stat(path); err == nil {
		bak := path + ".bak"
		_ = os.Remove(bak)
		if err := os.Rename(path, bak); err != nil {
			cleanup()
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return err
	}
	return os.Rename(tmp.Name(), path)
}

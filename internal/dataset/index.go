package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrUnknownLabel = errors.New("unknown dataset label")

// Paths is one or many files under a label. In the index file it is either
// a string or an array of strings.
type Paths []string

func (p *Paths) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*p = Paths{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("dataset paths: want string or array of strings: %w", err)
	}
	*p = many
	return nil
}

// Index maps dataset labels to files relative to a storage directory.
type Index map[string]Paths

func ReadIndex(path string) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(b, &ix); err != nil {
		return nil, fmt.Errorf("parse index %s: %w", path, err)
	}
	return ix, nil
}

func (ix Index) Paths(label string) ([]string, error) {
	p, ok := ix[label]
	if !ok || len(p) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return p, nil
}

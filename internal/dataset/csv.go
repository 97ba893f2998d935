package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"talent-pipeline/internal/frame"
)

// ErrEmptyFile is returned by ReadCSV for input without a header row.
var ErrEmptyFile = errors.New("no columns to parse")

type ReadOptions struct {
	// Columns keeps only these columns when set.
	Columns []string
	// DateColumns are parsed into time.Time. Cells that do not parse stay
	// as text.
	DateColumns []string
	// DateLayout is tried before the built-in layouts.
	DateLayout string
}

// BadLine describes a record skipped for having the wrong field count.
type BadLine struct {
	Line   int
	Fields int
}

// ReadCSV parses an export. Empty cells are null. Repeated headings get
// ".1", ".2" suffixes so each column keeps its own name.
func ReadCSV(r io.Reader, opts ReadOptions) (*frame.Frame, []BadLine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	header = mangle(header)

	keep := map[string]bool{}
	for _, c := range opts.Columns {
		keep[c] = true
	}
	dates := map[string]bool{}
	for _, c := range opts.DateColumns {
		dates[c] = true
	}
	var layouts []string
	if opts.DateLayout != "" {
		layouts = []string{opts.DateLayout}
	}

	cols := header
	if len(keep) > 0 {
		cols = nil
		for _, c := range header {
			if keep[c] {
				cols = append(cols, c)
			}
		}
	}

	f := frame.New(cols)
	var bad []BadLine
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read record: %w", err)
		}
		if len(rec) != len(header) {
			line, _ := cr.FieldPos(0)
			bad = append(bad, BadLine{Line: line, Fields: len(rec)})
			continue
		}

		row := make(frame.Row, len(cols))
		for i, name := range header {
			if len(keep) > 0 && !keep[name] {
				continue
			}
			row[name] = cell(rec[i], dates[name], layouts)
		}
		f.Rows = append(f.Rows, row)
	}
	return f, bad, nil
}

func cell(s string, isDate bool, layouts []string) any {
	if s == "" {
		return nil
	}
	if isDate {
		if t, ok := frame.ParseTime(s, layouts...); ok {
			return t
		}
		if len(layouts) > 0 {
			if t, ok := frame.ParseTime(s); ok {
				return t
			}
		}
	}
	return s
}

func mangle(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	taken := map[string]bool{}
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

// WriteCSV writes a header row and one record per row. Dates without a
// time of day render as YYYY-MM-DD.
func WriteCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	rec := make([]string, len(f.Columns))
	for _, r := range f.Rows {
		for i, c := range f.Columns {
			rec[i] = frame.Text(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

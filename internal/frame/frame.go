// Package frame holds column-oriented tabular batches whose schema is only
// known at runtime. Column names are kept verbatim from the export.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is matched by MissingColumnError.
var ErrMissingColumn = errors.New("missing column")

type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column(s): %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// Row maps a column name to a scalar. An absent key and a nil value are both null.
type Row map[string]any

type Frame struct {
	Columns []string
	Rows    []Row
}

// New builds a frame over cols. Row keys outside cols are ignored by Project
// and Reconcile but survive Clone.
func New(cols []string, rows ...Row) *Frame {
	f := &Frame{Columns: append([]string(nil), cols...)}
	for _, r := range rows {
		if r == nil {
			r = Row{}
		}
		f.Rows = append(f.Rows, r)
	}
	return f
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Empty reports whether the frame has no rows or no columns.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Rows) == 0 || len(f.Columns) == 0
}

func (f *Frame) Has(col string) bool {
	for _, c := range f.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (f *Frame) HasAll(cols ...string) bool {
	return len(f.Missing(cols...)) == 0
}

// Missing returns the subset of cols not present, in argument order.
func (f *Frame) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !f.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Require fails with a MissingColumnError when any of cols is absent.
func (f *Frame) Require(cols ...string) error {
	if m := f.Missing(cols...); len(m) > 0 {
		return &MissingColumnError{Columns: m}
	}
	return nil
}

func (f *Frame) Get(i int, col string) any {
	return f.Rows[i][col]
}

// Set writes v, appending col to the schema when it is new.
func (f *Frame) Set(i int, col string, v any) {
	if !f.Has(col) {
		f.Columns = append(f.Columns, col)
	}
	f.Rows[i][col] = v
}

// AddColumn appends col filled with v. Existing columns are left alone.
func (f *Frame) AddColumn(col string, v any) {
	if f.Has(col) {
		return
	}
	f.Columns = append(f.Columns, col)
	for _, r := range f.Rows {
		r[col] = v
	}
}

// Fill overwrites col with v on every row, creating the column if needed.
func (f *Frame) Fill(col string, v any) {
	if !f.Has(col) {
		f.Columns = append(f.Columns, col)
	}
	for _, r := range f.Rows {
		r[col] = v
	}
}

// Drop removes cols. Absent names are ignored.
func (f *Frame) Drop(cols ...string) {
	if len(cols) == 0 {
		return
	}
	gone := make(map[string]bool, len(cols))
	for _, c := range cols {
		gone[c] = true
	}
	keep := f.Columns[:0]
	for _, c := range f.Columns {
		if !gone[c] {
			keep = append(keep, c)
		}
	}
	f.Columns = keep
	for _, r := range f.Rows {
		for c := range gone {
			delete(r, c)
		}
	}
}

// Rename relabels every column through m at once, so chains and swaps
// behave. When several columns end up with one name, a renamed column beats
// a column that already had the name, and the earlier column wins among
// equals.
func (f *Frame) Rename(m map[string]string) {
	if len(m) == 0 {
		return
	}
	type source struct {
		from    string
		renamed bool
	}
	target := func(c string) (string, bool) {
		if to, ok := m[c]; ok && to != c {
			return to, true
		}
		return c, false
	}

	winner := make(map[string]source, len(f.Columns))
	for _, c := range f.Columns {
		to, renamed := target(c)
		if w, seen := winner[to]; !seen || (renamed && !w.renamed) {
			winner[to] = source{from: c, renamed: renamed}
		}
	}

	cols := make([]string, 0, len(winner))
	for _, c := range f.Columns {
		if to, _ := target(c); winner[to].from == c {
			cols = append(cols, to)
		}
	}
	for i, r := range f.Rows {
		nr := make(Row, len(cols))
		for _, to := range cols {
			if v, ok := r[winner[to].from]; ok {
				nr[to] = v
			}
		}
		f.Rows[i] = nr
	}
	f.Columns = cols
}

// Project keeps exactly cols, in that order. Callers ensure they exist.
func (f *Frame) Project(cols []string) {
	cols = uniq(cols)
	keep := make(map[string]bool, len(cols))
	for _, c := range cols {
		keep[c] = true
	}
	for _, r := range f.Rows {
		for k := range r {
			if !keep[k] {
				delete(r, k)
			}
		}
	}
	f.Columns = cols
}

// Clone deep-copies rows so the result can be changed freely.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([]Row, len(f.Rows)),
	}
	for i, r := range f.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Where returns a new frame sharing the rows for which keep is true.
func (f *Frame) Where(keep func(Row) bool) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	for _, r := range f.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Concat stacks frames. The schema is the ordered union of all columns.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{}
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, c := range fr.Columns {
			if !out.Has(c) {
				out.Columns = append(out.Columns, c)
			}
		}
		out.Rows = append(out.Rows, fr.Rows...)
	}
	return out
}

// DropDuplicates keeps the first row for each distinct combination of keys.
func (f *Frame) DropDuplicates(keys ...string) (*Frame, error) {
	if err := f.Require(keys...); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(f.Rows))
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	for _, r := range f.Rows {
		k := Key(r, keys...)
		if seen[k] {
			continue
		}
		seen[k] = true
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// Key joins the text of cols into a single comparable key. Null differs from "".
func Key(r Row, cols ...string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		v := r[c]
		if IsNull(v) {
			b.WriteByte('\x00')
			continue
		}
		b.WriteString(Text(v))
	}
	return b.String()
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

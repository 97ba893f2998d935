package transform

import (
	"strconv"
	"strings"
	"time"

	"talent-pipeline/internal/frame"
)

const (
	StatusOpen   = "Open"
	StatusDraft  = "Draft"
	StatusOnHold = "On Hold"
	StatusClosed = "Closed"
)

type JobOptions struct {
	// DedupFields default to Job ID.
	DedupFields []string
	// RunDate is the reference day for jobs without a close date.
	RunDate time.Time
	// Levels defaults to DefaultLevelRules.
	Levels []LevelRule
}

// statusRules are checked in order; the first hit wins.
var statusRules = []struct {
	status  string
	needles []string
}{
	{StatusOpen, []string{"Open"}},
	{StatusDraft, []string{"Draft"}},
	{StatusOnHold, []string{"On Hold"}},
	{StatusClosed, []string{"Closed", "Filled", "Cancel"}},
}

// ageBuckets are right-open [lo, next lo) intervals.
var ageBuckets = []struct {
	lo    int
	label string
}{
	{0, "0 - 30 Days"},
	{30, "30 - 60 Days"},
	{60, "60 - 90 Days"},
	{90, "90 - 180 Days"},
	{180, "180+ Days"},
}

// Jobs normalizes a job export: backfills identifiers and dates, derives
// status, age and level, and dedups on opts.DedupFields.
func Jobs(in *frame.Frame, opts JobOptions) (*frame.Frame, error) {
	if in.Empty() {
		return in, nil
	}
	dedup := opts.DedupFields
	if len(dedup) == 0 {
		dedup = []string{ColJobID}
	}
	if err := in.Require(dedup...); err != nil {
		return nil, err
	}
	if opts.RunDate.IsZero() {
		return nil, ErrNoRunDate
	}
	rules := opts.Levels
	if rules == nil {
		rules = DefaultLevelRules()
	}

	f := in.Clone()

	if !f.Has(ColPrismReqID) {
		if err := f.Require(ColJobID); err != nil {
			return nil, err
		}
		for i, r := range f.Rows {
			f.Set(i, ColPrismReqID, legacyReqPrefix+frame.Text(r[ColJobID]))
		}
	}

	// Recruitment start date only exists on reqs opened after mid-2024.
	backfill(f, ColStartDate, ColDate, ColCreationDate)

	// A closed-then-reopened req shows "Closed" in its code; the reference
	// field keeps the real one.
	if f.HasAll(ColCode, ColCodeRef) {
		for i, r := range f.Rows {
			if strings.Contains(frame.Text(r[ColCode]), "Closed") {
				f.Set(i, ColCode, r[ColCodeRef])
			}
		}
	}

	// Drafts may not have a posting title yet.
	backfill(f, ColJobTitle, ColName)

	for i, r := range f.Rows {
		f.Set(i, ColJobStatus, JobStatus(r[ColWorkflowStep]))
	}

	computeAge(f, opts.RunDate)

	// Canadian reqs were historically owned by the Tech/IT team.
	if f.Has(ColCountry) {
		for i, r := range f.Rows {
			if r[ColCountry] == "Canada" {
				f.Set(i, ColLevel, "Non Manager")
			}
		}
	}
	if f.Has(ColLevel) {
		for i, r := range f.Rows {
			if s, ok := r[ColLevel].(string); ok {
				f.Set(i, ColLevel, titleCase(s))
			}
		}
	}

	backfill(f, ColLocation, ColContractLoc)

	f = inferLevels(f, rules)

	return f.DropDuplicates(dedup...)
}

// JobStatus groups free-text workflow steps into Open, Draft, On Hold or
// Closed. Anything unrecognized is Closed.
func JobStatus(step any) string {
	for _, r := range statusRules {
		if frame.ContainsAny(step, r.needles...) {
			return r.status
		}
	}
	return StatusClosed
}

// AgeBucket labels a day count. Negative counts fall in the first bucket.
func AgeBucket(days int) string {
	label := ageBuckets[0].label
	for _, b := range ageBuckets {
		if days >= b.lo {
			label = b.label
		}
	}
	return label
}

// computeAge replaces the portal's own Days open, which does not count from
// the recruitment start date. Without a close date column every job ages up
// to runDate and belongs to the run year. With one, Job Year is the close
// year of any row that has a close date, and only closed jobs are aged, up
// to their close date.
func computeAge(f *frame.Frame, runDate time.Time) {
	f.Drop(ColDaysOpen)

	withClose := f.Has(ColDateClosed)
	runYear := strconv.Itoa(runDate.Year())

	for i, r := range f.Rows {
		var (
			year any
			days any
		)
		start, hasStart := frame.Time(r[ColStartDate])

		if !withClose {
			year = runYear
			if hasStart {
				days = clampDays(frame.DaysBetween(start, runDate))
			}
		} else if closed, ok := frame.Time(r[ColDateClosed]); ok {
			year = strconv.Itoa(closed.Year())
			if hasStart && r[ColJobStatus] == StatusClosed {
				days = clampDays(frame.DaysBetween(start, closed))
			}
		}

		f.Set(i, ColJobYear, year)
		f.Set(i, ColDaysOpen, days)
		if d, ok := days.(int); ok {
			f.Set(i, ColDaysRange, AgeBucket(d))
		} else {
			f.Set(i, ColDaysRange, nil)
		}
	}
}

// inferLevels fills missing mapping levels from the title. Rows that
// already carry a level come first in the result, then the inferred ones.
func inferLevels(f *frame.Frame, rules []LevelRule) *frame.Frame {
	f.AddColumn(ColLevel, nil)

	known := f.Where(func(r frame.Row) bool { return !frame.IsNull(r[ColLevel]) })
	unknown := f.Where(func(r frame.Row) bool { return frame.IsNull(r[ColLevel]) })
	for _, r := range unknown.Rows {
		r[ColLevel] = InferLevel(r[ColJobTitle], rules)
	}
	return frame.Concat(known, unknown)
}

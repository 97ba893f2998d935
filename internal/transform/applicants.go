package transform

import (
	"strings"

	"talent-pipeline/internal/frame"
)

type ApplicantOptions struct {
	Type ApplicantType

	// Columns, when set, is the schema of the result. Missing columns are
	// created as null.
	Columns []string
	Rename  map[string]string
}

// demographicDefaults replaces unanswered survey fields. Order matches the
// export form.
var demographicDefaults = []struct{ col, value string }{
	{ColGender, "Prefer not say"},
	{ColRace, raceUnanswered},
	{ColVeterans, "I prefer not to answer"},
	{ColDisability, "I don’t wish to answer"},
}

// Applicants reconciles one applicant export into the shared schema and
// keeps the latest row per person.
func Applicants(in *frame.Frame, opts ApplicantOptions) (*frame.Frame, error) {
	if in.Empty() {
		return in, nil
	}
	if _, err := ParseApplicantType(string(opts.Type)); err != nil {
		return nil, err
	}
	if err := in.Require(ColPersonID); err != nil {
		return nil, err
	}

	f := in.Clone()

	if opts.Type == Internal {
		remapInternalGender(f)
	} else {
		mergeUniversity(f, opts.Type)
		backfillRace(f)
		if f.HasAll(ColSource, ColOtherSource) {
			for i, r := range f.Rows {
				if frame.Contains(r[ColSource], other) {
					f.Set(i, ColSource, r[ColOtherSource])
				}
			}
		}
	}
	if opts.Type == External || opts.Type == Registrant {
		fillDemographics(f)
	}

	mergeApplicationDates(f)

	if opts.Columns != nil {
		f = frame.Reconcile(f, opts.Columns)
	}
	f.Rename(opts.Rename)
	// Tagged last so the type survives any target schema. Batches of
	// different types share one table.
	f.Fill(ColApplicantType, string(opts.Type))

	return latestPerPerson(f, renamed(opts.Rename, ColPersonID), renamed(opts.Rename, ColDate))
}

// mergeUniversity resolves the "Other" university choice to its free-text
// answer, falls back to the profile university for external applicants, and
// normalizes case.
func mergeUniversity(f *frame.Frame, typ ApplicantType) {
	hasAlt := f.Has(ColUniversityAlt)
	hasPI := typ == External && f.Has(ColPIUniversity)
	if !f.Has(ColUniversity) && !hasPI {
		return
	}

	for i, r := range f.Rows {
		v := r[ColUniversity]
		if hasAlt && frame.Contains(v, other) {
			v = r[ColUniversityAlt]
		}
		if hasPI && frame.IsNull(v) {
			v = r[ColPIUniversity]
		}
		if !frame.IsNull(v) {
			s := frame.Text(v)
			if typ == Internship {
				s = titleCase(s)
			} else {
				s = strings.ToUpper(s)
			}
			v = s
		}
		f.Set(i, ColUniversity, v)
	}

	f.Drop(ColUniversityAlt)
	if hasPI {
		f.Drop(ColPIUniversity)
	}
}

func backfillRace(f *frame.Frame) {
	if !f.Has(ColEthnicity) {
		return
	}
	f.AddColumn(ColRace, nil)
	for i, r := range f.Rows {
		race := r[ColRace]
		if frame.IsNull(race) || race == raceUnanswered {
			f.Set(i, ColRace, r[ColEthnicity])
		}
	}
}

func fillDemographics(f *frame.Frame) {
	for _, d := range demographicDefaults {
		if !f.Has(d.col) {
			continue
		}
		for i, r := range f.Rows {
			if frame.IsNull(r[d.col]) {
				f.Set(i, d.col, d.value)
			}
		}
	}
}

func remapInternalGender(f *frame.Frame) {
	if !f.Has(ColInternalSex) {
		return
	}
	for i, r := range f.Rows {
		switch r[ColInternalSex] {
		case "F":
			f.Set(i, ColInternalSex, "Female")
		case "M":
			f.Set(i, ColInternalSex, "Male")
		}
	}
}

// mergeApplicationDates folds the link and visit timestamps into a single
// calendar-date column. The link date wins when both are set.
func mergeApplicationDates(f *frame.Frame) {
	hasLink, hasVisit := f.Has(ColLinkDate), f.Has(ColVisitDate)
	if !hasLink && !hasVisit {
		return
	}

	dates := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		v := r[ColLinkDate]
		if frame.IsNull(v) && hasVisit {
			v = r[ColVisitDate]
		}
		if t, ok := frame.Time(v); ok {
			v = frame.Truncate(t)
		} else if frame.IsNull(v) {
			v = nil
		}
		dates[i] = v
	}

	f.Drop(ColLinkDate, ColVisitDate)
	for i := range f.Rows {
		f.Set(i, ColDate, dates[i])
	}
}

// latestPerPerson keeps one row per person: the one with the latest date,
// or the first seen when dates tie or no date column exists. Output follows
// the order in which each person first appears.
func latestPerPerson(f *frame.Frame, idCol, dateCol string) (*frame.Frame, error) {
	if err := f.Require(idCol); err != nil {
		return nil, err
	}
	if !f.Has(dateCol) {
		return f.DropDuplicates(idCol)
	}

	best := make(map[string]int, len(f.Rows))
	var order []string
	for i, r := range f.Rows {
		k := frame.Key(r, idCol)
		j, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}
		if later(r[dateCol], f.Rows[j][dateCol]) {
			best[k] = i
		}
	}

	out := &frame.Frame{Columns: f.Columns}
	for _, k := range order {
		out.Rows = append(out.Rows, f.Rows[best[k]])
	}
	return out, nil
}

// later reports whether a is strictly after b. Null dates sort last.
func later(a, b any) bool {
	ta, okA := frame.Time(a)
	if !okA {
		return false
	}
	tb, okB := frame.Time(b)
	if !okB {
		return true
	}
	return ta.After(tb)
}

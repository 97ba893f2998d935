package transform

import (
	"strconv"

	"talent-pipeline/internal/frame"
)

type OfferOptions struct {
	ApplicantType ApplicantType
	Status        OfferStatus

	// DedupColumns name columns after Rename. Default Job ID, Person ID.
	DedupColumns []string
	Columns      []string
	Rename       map[string]string

	// PipelineFields are the form questions asking whether the hire came
	// from a talent pipeline, newest schema first. Defaults to
	// DefaultPipelineFields.
	PipelineFields []string
}

func DefaultPipelineFields() []string {
	return []string{ColPipelineQ}
}

// Offers normalizes an offer export: tags type and status, resolves offer
// date, source and pipeline origin, computes time to hire, and dedups.
func Offers(in *frame.Frame, opts OfferOptions) (*frame.Frame, error) {
	if in.Empty() {
		return in, nil
	}
	if _, err := ParseApplicantType(string(opts.ApplicantType)); err != nil {
		return nil, err
	}
	if _, err := ParseOfferStatus(string(opts.Status)); err != nil {
		return nil, err
	}
	if err := in.Require(ColJobID, ColPersonID); err != nil {
		return nil, err
	}
	dedup := opts.DedupColumns
	if len(dedup) == 0 {
		dedup = []string{ColJobID, ColPersonID}
	}
	pipelineFields := opts.PipelineFields
	if pipelineFields == nil {
		pipelineFields = DefaultPipelineFields()
	}

	f := in.Clone()
	f.Fill(ColApplicantType, string(opts.ApplicantType))
	f.Fill(ColOfferStatus, string(opts.Status))

	backfill(f, ColStartDate, ColDate)

	if f.Has(ColPrismReqID) {
		for i, r := range f.Rows {
			if frame.IsNull(r[ColPrismReqID]) {
				f.Set(i, ColPrismReqID, legacyReqPrefix+frame.Text(r[ColJobID]))
			}
		}
	}

	dateFields := []string{ColLastStepUpdate}
	if f.Has(ColOfferAccepted) {
		dateFields = []string{ColOfferAccepted, ColLastStepUpdate}
	}
	var asked []string
	for _, q := range pipelineFields {
		if f.Has(q) {
			asked = append(asked, q)
		}
	}

	for i, r := range f.Rows {
		offerDate := firstNonNull(r, dateFields...)
		source := firstNonNull(r, ColSourceSelection, ColSource)

		pipeline := firstNonNull(r, asked...)
		if frame.IsNull(pipeline) {
			pipeline = "No"
			if source == "Pipeline" {
				pipeline = "Yes"
			}
		}

		f.Set(i, ColOfferDate, offerDate)
		f.Set(i, ColOfferSource, source)
		f.Set(i, ColPipeline, pipeline)
		f.Set(i, ColOfferYear, nil)
		f.Set(i, ColTimeInProcess, nil)

		if od, ok := frame.Time(offerDate); ok {
			f.Set(i, ColOfferYear, strconv.Itoa(od.Year()))
			if start, ok := frame.Time(r[ColStartDate]); ok {
				f.Set(i, ColTimeInProcess, clampDays(frame.DaysBetween(start, od)))
			}
		}
		f.Set(i, ColOfferPair, pairKey(r[ColJobID], r[ColPersonID]))
	}
	f.Drop(asked...)

	if opts.Columns != nil {
		f = frame.Reconcile(f, opts.Columns)
	}
	f.Rename(opts.Rename)

	return f.DropDuplicates(dedup...)
}

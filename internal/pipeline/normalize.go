package pipeline

import (
	"fmt"
	"time"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/frame"
	"talent-pipeline/internal/transform"
)

// env carries the run-wide inputs every batch shares.
type env struct {
	runDate        time.Time
	levels         []transform.LevelRule
	pipelineFields []string
}

// normalize applies the batch's normalizer to in and, when asked, adds the
// Pair key. Empty batches pass through untouched.
func normalize(b config.Batch, in *frame.Frame, e env) (*frame.Frame, error) {
	var (
		out *frame.Frame
		err error
	)
	switch b.Kind {
	case config.KindApplicants:
		out, err = transform.Applicants(in, transform.ApplicantOptions{
			Type:    transform.ApplicantType(b.ApplicantType),
			Columns: b.Columns,
			Rename:  b.Rename,
		})
	case config.KindJobs:
		out, err = transform.Jobs(in, transform.JobOptions{
			DedupFields: b.Dedup,
			RunDate:     e.runDate,
			Levels:      e.levels,
		})
		if err == nil && !out.Empty() {
			if b.Columns != nil {
				out = frame.Reconcile(out, b.Columns)
			}
			out.Rename(b.Rename)
		}
	case config.KindOffers:
		out, err = transform.Offers(in, transform.OfferOptions{
			ApplicantType:  transform.ApplicantType(b.ApplicantType),
			Status:         transform.OfferStatus(b.OfferStatus),
			DedupColumns:   b.Dedup,
			Columns:        b.Columns,
			Rename:         b.Rename,
			PipelineFields: e.pipelineFields,
		})
	default:
		return nil, fmt.Errorf("batch %s: unknown kind %q", b.Name, b.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", b.Name, err)
	}

	if b.Pair && !out.Empty() {
		out, err = transform.MakePair(out, "", "")
		if err != nil {
			return nil, fmt.Errorf("batch %s: pair: %w", b.Name, err)
		}
	}
	return out, nil
}

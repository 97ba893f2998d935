package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"talent-pipeline/internal/transform"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or returns nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NormalizeAndValidate returns a normalized copy of cfg and the problems
// found in it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scrape.URLMaps = trimList(out.Scrape.URLMaps)
	if out.Pipeline.PipelineFields != nil {
		out.Pipeline.PipelineFields = trimList(out.Pipeline.PipelineFields)
	}
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// scrape sanity
	if out.Scrape.Retries < 0 {
		res.addErr("scrape.retries must be >= 0")
	}
	if out.Scrape.BackoffMillis < 0 {
		res.addErr("scrape.backoff_ms must be >= 0")
	}
	if out.Scrape.Workers < 0 {
		res.addErr("scrape.workers must be >= 0")
	}
	if out.Scrape.RatePerSecond < 0 {
		res.addErr("scrape.rate_per_second must be >= 0")
	} else if out.Scrape.RatePerSecond > 20 {
		res.addWarn("scrape.rate_per_second is very high (%g) and may get the portal to throttle you.", out.Scrape.RatePerSecond)
	}
	if out.Scrape.DisableSSL {
		res.addWarn("scrape.disable_ssl is true; certificates will not be verified.")
	}
	for i, m := range out.Scrape.URLMaps {
		if !strings.HasSuffix(m, ".json") {
			res.addErr("scrape.url_maps[%d] %q must be a .json file", i, m)
		}
	}

	if out.Pipeline.RunDate != "" {
		if _, err := out.RunDate(time.Time{}); err != nil {
			res.addErr("pipeline.run_date %q must be YYYY-MM-DD", out.Pipeline.RunDate)
		}
	}

	if len(out.Pipeline.Batches) == 0 {
		res.addWarn("pipeline.batches is empty; runs will load nothing.")
	}
	names := map[string]bool{}
	for i, b := range out.Pipeline.Batches {
		at := fmt.Sprintf("pipeline.batches[%d]", i)
		if strings.TrimSpace(b.Name) == "" {
			res.addErr("%s.name is required", at)
		} else if names[b.Name] {
			res.addErr("%s.name %q is used twice", at, b.Name)
		}
		names[b.Name] = true

		if b.Dataset == "" {
			res.addErr("%s.dataset is required", at)
		}
		if !tableName.MatchString(b.Table) {
			res.addErr("%s.table %q must be a plain SQL identifier", at, b.Table)
		}

		switch b.Kind {
		case KindApplicants:
			if _, err := transform.ParseApplicantType(b.ApplicantType); err != nil {
				res.addErr("%s: %v", at, err)
			}
		case KindOffers:
			if _, err := transform.ParseApplicantType(b.ApplicantType); err != nil {
				res.addErr("%s: %v", at, err)
			}
			if _, err := transform.ParseOfferStatus(b.OfferStatus); err != nil {
				res.addErr("%s: %v", at, err)
			}
		case KindJobs:
			if b.ApplicantType != "" || b.OfferStatus != "" {
				res.addWarn("%s: applicant_type and offer_status are ignored for jobs", at)
			}
		default:
			res.addErr("%s.kind %q must be one of: applicants, jobs, offers", at, b.Kind)
		}
		if b.Pair && b.Kind == KindJobs {
			res.addWarn("%s: pair on a jobs batch needs a Person ID column", at)
		}

		for from, to := range b.Rename {
			if strings.TrimSpace(to) == "" {
				res.addErr("%s.rename[%q] cannot be empty", at, from)
			}
		}
	}

	for i, r := range out.Levels {
		if r.Level == "" {
			res.addErr("levels[%d].level is required", i)
		}
		if len(r.Any) == 0 {
			res.addErr("levels[%d].any must have at least 1 pattern", i)
		}
		for j, term := range r.Any {
			if term == "" {
				res.addErr("levels[%d].any[%d] cannot be empty", i, j)
				continue
			}
			if _, err := regexp.Compile(term); err != nil {
				res.addErr("levels[%d].any[%d] %q: %v", i, j, term, err)
			}
		}
	}

	if out.Schedule.RunSeconds < 0 {
		res.addErr("schedule.run_seconds must be >= 0")
	} else if out.Schedule.RunSeconds > 0 && out.Schedule.RunSeconds < 60 {
		res.addWarn("schedule.run_seconds is very low (%d); runs may overlap the lock.", out.Schedule.RunSeconds)
	}

	return out, res
}

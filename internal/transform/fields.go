// Package transform repairs recruiting exports whose schema drifts between
// releases into stable job, offer and applicant tables.
//
// Every rule checks that the columns it reads exist before touching them;
// an absent optional column is not an error. Inputs are never modified.
package transform

import "talent-pipeline/internal/frame"

// Export field labels, verbatim.
const (
	ColJobID    = "Job ID"
	ColPersonID = "Person ID"
	ColDate     = "Date"
	ColSource   = "Source"
	ColPair     = "Pair"

	ColApplicantType = "Applicant Type"

	ColPrismReqID   = "USA | PRISM Req ID"
	ColStartDate    = "JI | Recruitment Start Date"
	ColCreationDate = "Creation date"
	ColCode         = "JI | Code"
	ColCodeRef      = "JI | Code (Reference)"
	ColJobTitle     = "Ad | (Default) Job Title"
	ColName         = "Name"
	ColWorkflowStep = "Job workflow step"
	ColJobStatus    = "Job Status"
	ColDateClosed   = "Date closed"
	ColDaysOpen     = "Days open"
	ColJobYear      = "Job Year"
	ColDaysRange    = "Days Open Range"
	ColCountry      = "JI | Country"
	ColLevel        = "USA | Job Mapping Level"
	ColLocation     = "JI | Location"
	ColContractLoc  = "JI | Contractual Location"

	ColUniversity    = "University"
	ColUniversityAlt = "University.1"
	ColPIUniversity  = "PI | University"
	ColRace          = "DD | Race"
	ColGender        = "DD | Gender"
	ColVeterans      = "DD | US Veterans"
	ColDisability    = "DD | Disability"
	ColEthnicity     = "What is your ethnicity?"
	ColOtherSource   = "Other source"
	ColInternalSex   = "EI | Carol Gender 🔒"
	ColLinkDate      = "Link to job date"
	ColVisitDate     = "Visit date"

	ColOfferStatus     = "Offer Status"
	ColOfferAccepted   = "Offer Accepted Date (OAD)"
	ColLastStepUpdate  = "Last job step update"
	ColSourceSelection = "Select the source of recruitment :"
	ColPipelineQ       = "Was the candidate in your pipeline before being hired?"
	ColPipeline        = "Pipeline candidate?"
	ColOfferSource     = "Offer Source"
	ColOfferDate       = "Offer Date"
	ColOfferYear       = "Offer Year"
	ColOfferPair       = "Offer Pair"
	ColTimeInProcess   = "Time in Process"
)

// legacyReqPrefix marks requisition IDs synthesized for pre-migration jobs.
const legacyReqPrefix = "LUSA-"

const (
	raceUnanswered = "I Prefer Not to Answer"
	other          = "Other"
)

// backfill fills null dst cells with the first non-null src, in order.
// dst is created when absent and at least one src exists.
func backfill(f *frame.Frame, dst string, srcs ...string) {
	var present []string
	for _, s := range srcs {
		if f.Has(s) {
			present = append(present, s)
		}
	}
	if len(present) == 0 {
		return
	}
	f.AddColumn(dst, nil)
	for i, r := range f.Rows {
		if !frame.IsNull(r[dst]) {
			continue
		}
		f.Set(i, dst, firstNonNull(r, present...))
	}
}

func firstNonNull(r frame.Row, cols ...string) any {
	for _, c := range cols {
		if v := r[c]; !frame.IsNull(v) {
			return v
		}
	}
	return nil
}

func clampDays(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// renamed resolves col through a rename map.
func renamed(m map[string]string, col string) string {
	if to, ok := m[col]; ok {
		return to
	}
	return col
}

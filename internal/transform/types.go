package transform

type ApplicantType string

const (
	External   ApplicantType = "External"
	Internal   ApplicantType = "Internal"
	Internship ApplicantType = "Internship"
	Registrant ApplicantType = "Registrant"
)

var applicantTypes = []ApplicantType{External, Internal, Internship, Registrant}

func ParseApplicantType(s string) (ApplicantType, error) {
	for _, t := range applicantTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", &ChoiceError{Field: "applicant type", Value: s, Allowed: names(applicantTypes)}
}

type OfferStatus string

const (
	Accepted OfferStatus = "Accepted"
	Rejected OfferStatus = "Rejected"
	Reneged  OfferStatus = "Reneged"
)

var offerStatuses = []OfferStatus{Accepted, Rejected, Reneged}

func ParseOfferStatus(s string) (OfferStatus, error) {
	for _, st := range offerStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &ChoiceError{Field: "offer status", Value: s, Allowed: names(offerStatuses)}
}

func names[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

package util

import (
	"net/url"
	"strings"
)

// secretParams are query keys whose values grant access to a report.
var secretParams = []string{"token", "key", "sig", "signature", "auth", "password", "secret"}

// RedactURL returns raw fit for logs: credentials removed, fragment
// dropped, secret query values masked.
func RedactURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.User = nil
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		for _, s := range secretParams {
			if strings.Contains(lk, s) {
				q.Set(k, "REDACTED")
				break
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

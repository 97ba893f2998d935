package util

import (
	"path/filepath"
	"strings"
)

// CleanText trims a table cell the way a browser would render it: no
// leading or trailing space, inner runs of whitespace collapsed.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CSVName turns a url-map key into a file name, adding .csv when missing.
// Directory parts are dropped so a map cannot write outside its folder.
func CSVName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return ""
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		name += ".csv"
	}
	return name
}

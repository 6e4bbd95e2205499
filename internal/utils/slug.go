package utils

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slugify lower-cases s and collapses every run of non-alphanumerics into
// a single dash. Facility detail URLs use it.
func Slugify(s string) string {
	return strings.Trim(strings.ToLower(nonAlnum.ReplaceAllString(s, "-")), "-")
}

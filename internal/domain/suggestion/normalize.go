package suggestion

import "strings"

// NormalizeName prepares a candidate name for exact-match duplicate
// detection: trim, case-fold, collapse internal whitespace. This is a
// deliberately conservative rule; a false negative (a dupe slipping
// through to review) is fine, a false positive that blocks a distinct
// dish is not, so there is no fuzzy matching here.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

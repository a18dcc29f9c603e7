package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var setCodePattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)([A-Za-z]*)$`)

// ExtractSetCode returns the set code prefix of a group name such as
// "SV9a: Battle Partners". Letters are upper-cased, digits kept, and any
// trailing letter suffix lower-cased ("sv9A" becomes "SV9a"). Full-width
// characters are folded to ASCII first. Names without a ":" have no set code.
func ExtractSetCode(groupName string) (string, bool) {
	folded := width.Fold.String(groupName)
	prefix, _, found := strings.Cut(folded, ":")
	if !found {
		return "", false
	}
	code := NormalizeSetCode(prefix)
	return code, code != ""
}

// NormalizeSetCode applies the set code casing rules to a bare code.
func NormalizeSetCode(code string) string {
	code = strings.TrimSpace(width.Fold.String(code))
	if m := setCodePattern.FindStringSubmatch(code); m != nil {
		return strings.ToUpper(m[1]) + m[2] + strings.ToLower(m[3])
	}
	return code
}

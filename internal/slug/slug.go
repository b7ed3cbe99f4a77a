// Package slug normalises free-form names into identifier-safe tokens used for branch
// ids and usernames.
package slug

import (
	"regexp"
	"strings"
)

const maxLen = 40

var reSlug = regexp.MustCompile(`^[a-z0-9_]{2,40}$`)

// IsSlug reports whether s matches ^[a-z0-9_]{2,40}$.
func IsSlug(s string) bool {
	return reSlug.MatchString(s)
}

// Slugify lowercases s, turns every run of characters outside [a-z0-9_] into a single
// '_', caps the result at 40 runes and trims surrounding underscores.
// "Head Office" becomes "head_office".
func Slugify(s string) string {
	var b strings.Builder
	sep := false
	n := 0
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if n >= maxLen {
			break
		}
		keep := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !keep {
			if !sep && n > 0 {
				b.WriteByte('_')
				n++
				sep = true
			}
			continue
		}
		b.WriteRune(r)
		n++
		sep = false
	}
	return strings.Trim(b.String(), "_")
}

// Username canonicalises a login name. It returns "" when nothing usable remains.
func Username(s string) string {
	u := Slugify(s)
	if !IsSlug(u) {
		return ""
	}
	return u
}

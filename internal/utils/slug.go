package utils

import (
	"strings"
	"unicode"
)

// Slugify derives a URL/filename-safe identifier from a title. Lowercased,
// with every run of non-alphanumeric characters collapsed to a single dash.
// Deriving twice from the same title yields the same slug; titles differing
// only by case or punctuation collapse to the same slug, which is accepted
// (later content overwrites earlier content for the same title).
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		} else {
			pendingDash = true
		}
	}
	return b.String()
}

// SlugFromTitleOrKeywords applies the title-or-first-keyword fallback rule:
// the title wins when it produces a usable slug, otherwise the first
// comma-separated keyword is used.
func SlugFromTitleOrKeywords(title, keywords string) string {
	if s := Slugify(title); s != "" {
		return s
	}
	first, _, _ := strings.Cut(keywords, ",")
	return Slugify(first)
}

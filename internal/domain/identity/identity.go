// Package identity canonicalizes student names so records from unrelated
// sources can be matched to one person.
package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize converts "Last, First" into "First Last" and trims everything
// else. Only the first two comma-separated parts are kept, so the result
// never contains a comma and Normalize is idempotent.
func Normalize(raw string) string {
	if !strings.Contains(raw, ",") {
		return strings.TrimSpace(raw)
	}
	parts := strings.Split(raw, ",")
	family := strings.TrimSpace(parts[0])
	given := strings.TrimSpace(parts[1])
	switch {
	case given == "":
		return family
	case family == "":
		return given
	}
	return given + " " + family
}

// Key returns the comparison key for a raw name. Two names describe the same
// student exactly when their keys are equal.
func Key(raw string) string {
	return strings.ToLower(Normalize(raw))
}

// Slug derives the URL-safe record id from a canonical name.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// FamilyName is the last whitespace-delimited token of a canonical name.
func FamilyName(name string) string {
	f := strings.Fields(name)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// Prefer picks the display variant for a student whose name arrived in more
// than one form: the incoming variant wins when it starts with an uppercase
// letter, otherwise the existing one is kept.
func Prefer(existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	r, _ := utf8.DecodeRuneInString(incoming)
	if r != utf8.RuneError && unicode.IsUpper(r) {
		return incoming
	}
	return existing
}

// FromEmail builds a display name from the local part of an address,
// e.g. "jane.smith@school.org" becomes "Jane Smith".
func FromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

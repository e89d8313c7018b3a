package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DeriveUsername builds "first.last" plus the last three characters of nationalID,
// e.g. ("José María", "Núñez Pérez", "V-12345678") -> "jose.nunez678".
func DeriveUsername(firstName, lastName, nationalID string) string {
	id := []rune(strings.TrimSpace(nationalID))
	if len(id) > 3 {
		id = id[len(id)-3:]
	}
	return nameToken(firstName) + "." + nameToken(lastName) + string(id)
}

// nameToken strips diacritics (ñ becomes n), lower-cases, and keeps the first whitespace-separated word.
func nameToken(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	fields := strings.Fields(strings.ToLower(folded))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

package cv

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ToTitleCase canonicalizes a display name: lowercase everything, then
// capitalize the first rune of each whitespace-delimited token. Irregular
// spacing collapses to single spaces. This is the candidate deduplication key.
func ToTitleCase(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	for i, f := range fields {
		runes := []rune(f)
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

// NormalizeName applies ToTitleCase with null pass-through: a missing name
// stays missing so the caller can decide on a placeholder.
func NormalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	normalized := ToTitleCase(*name)
	if normalized == "" {
		return nil
	}
	return &normalized
}

// PlaceholderName synthesizes a unique name for candidates whose CV yielded
// no usable name. It must never be empty and never collide with a real name.
func PlaceholderName() string {
	return "Candidato " + uuid.New().String()
}

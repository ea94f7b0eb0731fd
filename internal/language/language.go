// Package language normalizes stream language tags for display.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var english = display.English.Languages()

// tagKeys lists the metadata keys containers commonly store a language under.
var tagKeys = []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}

// FromTags extracts the raw language value from stream metadata tags.
// The value is returned as stored so a later remux can re-attach it verbatim.
func FromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range tagKeys {
		if value, ok := tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// DisplayName renders a human-readable name for an ISO 639-1/2 code.
// Unrecognized codes come back uppercased; empty input reads "Unknown".
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	base, err := language.ParseBase(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := english.Name(language.Make(base.String())); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

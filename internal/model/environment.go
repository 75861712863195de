package model

import "strings"

// EnvironmentSnapshot captures the locale, timezone and language
// preferences of the host at the time of the call.
type EnvironmentSnapshot struct {
	// LocaleCountryCode is the 2-letter region of the resolved locale,
	// or empty when the locale carries no region.
	LocaleCountryCode string `json:"locale_country_code"`

	// TimezoneName is the IANA zone name of the host, or empty.
	TimezoneName string `json:"timezone"`

	// Languages is the preference-ordered list of language tags.
	// It is never empty; when nothing is known it holds a single empty tag.
	Languages []string `json:"languages"`
}

// HasLanguages reports whether at least one non-empty language tag is known.
func (e EnvironmentSnapshot) HasLanguages() bool {
	for _, l := range e.Languages {
		if l != "" {
			return true
		}
	}
	return false
}

// LanguageList returns the language tags joined with commas.
func (e EnvironmentSnapshot) LanguageList() string {
	return strings.Join(e.Languages, ",")
}

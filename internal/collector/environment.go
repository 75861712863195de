package collector

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/nao1215/vpnsentry/internal/model"
)

// localeRegion matches the trailing region of a locale such as "de_DE".
var localeRegion = regexp.MustCompile(`[-_]([A-Z]{2})$`)

// ReadEnvironment returns the locale, timezone and language preferences of h.
func ReadEnvironment(h Host) model.EnvironmentSnapshot {
	locale := resolveLocale(h)

	var region string
	if m := localeRegion.FindStringSubmatch(locale); m != nil {
		region = m[1]
	}

	return model.EnvironmentSnapshot{
		LocaleCountryCode: region,
		TimezoneName:      resolveTimezone(h),
		Languages:         resolveLanguages(h, locale),
	}
}

// resolveLocale returns the first set locale variable without its codeset
// and modifier: "de_DE.UTF-8@euro" becomes "de_DE".
func resolveLocale(h Host) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := h.Getenv(key)
		if v == "" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return v
	}
	return ""
}

func resolveTimezone(h Host) string {
	tz := strings.TrimPrefix(h.Getenv("TZ"), ":")
	if tz != "" {
		if name := zoneFromPath(tz); name != "" {
			return name
		}
		return tz
	}
	return h.LocalTimezone()
}

// resolveLanguages returns the GNU LANGUAGE list or the locale language,
// normalised to BCP 47. The result is never empty.
func resolveLanguages(h Host, locale string) []string {
	var raw []string
	if list := h.Getenv("LANGUAGE"); list != "" {
		raw = strings.Split(list, ":")
	} else {
		raw = []string{locale}
	}

	var langs []string
	for _, r := range raw {
		if tag := normalizeLanguage(r); tag != "" {
			langs = append(langs, tag)
		}
	}
	if len(langs) == 0 {
		return []string{""}
	}
	return langs
}

func normalizeLanguage(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	switch s {
	case "", "C", "POSIX":
		return ""
	}
	if tag, err := language.Parse(s); err == nil {
		return tag.String()
	}
	return s
}

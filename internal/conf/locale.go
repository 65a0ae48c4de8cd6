package conf

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// fallbackLabelLocale is used when the configured locale has no label file
const fallbackLabelLocale = "en_uk"

// LocaleCodeMapping maps lower case locale keys to the suffix of the V2.4
// label file names.
var LocaleCodeMapping = map[string]string{
	"af":    "af",
	"ar":    "ar",
	"bg":    "bg",
	"ca":    "ca",
	"cs":    "cs",
	"da":    "da",
	"de":    "de",
	"el":    "el",
	"en":    "en_uk",
	"en-gb": "en_uk",
	"en-uk": "en_uk",
	"en-us": "en_us",
	"es":    "es",
	"et":    "et",
	"fi":    "fi",
	"fr":    "fr",
	"he":    "he",
	"hr":    "hr",
	"hu":    "hu",
	"id":    "id",
	"is":    "is",
	"it":    "it",
	"ja":    "ja",
	"ko":    "ko",
	"lt":    "lt",
	"lv":    "lv",
	"ml":    "ml",
	"nl":    "nl",
	"no":    "no",
	"nb":    "no",
	"pl":    "pl",
	"pt":    "pt_PT",
	"pt-br": "pt_BR",
	"pt-pt": "pt_PT",
	"ro":    "ro",
	"ru":    "ru",
	"sk":    "sk",
	"sl":    "sl",
	"sr":    "sr",
	"sv":    "sv",
	"th":    "th",
	"tr":    "tr",
	"uk":    "uk",
	"zh":    "zh",
}

// LocaleNames holds human-readable names accepted in place of a code
var LocaleNames = map[string]string{
	"afrikaans":            "af",
	"arabic":               "ar",
	"bulgarian":            "bg",
	"brazilian portuguese": "pt-br",
	"catalan":              "ca",
	"czech":                "cs",
	"chinese":              "zh",
	"croatian":             "hr",
	"danish":               "da",
	"dutch":                "nl",
	"greek":                "el",
	"english":              "en",
	"english (uk)":         "en-uk",
	"english (us)":         "en-us",
	"estonian":             "et",
	"finnish":              "fi",
	"french":               "fr",
	"german":               "de",
	"hebrew":               "he",
	"hungarian":            "hu",
	"icelandic":            "is",
	"indonesian":           "id",
	"italian":              "it",
	"japanese":             "ja",
	"korean":               "ko",
	"latvian":              "lv",
	"lithuanian":           "lt",
	"malayalam":            "ml",
	"norwegian":            "no",
	"polish":               "pl",
	"portuguese":           "pt",
	"romanian":             "ro",
	"russian":              "ru",
	"serbian":              "sr",
	"slovak":               "sk",
	"slovenian":            "sl",
	"spanish":              "es",
	"swedish":              "sv",
	"thai":                 "th",
	"turkish":              "tr",
	"ukrainian":            "uk",
}

// LabelLocale resolves a user supplied locale ("en", "de-AT", "pt_BR",
// "German") to a label file suffix. Unsupported input returns the English
// suffix together with an error describing the fallback.
func LabelLocale(input string) (string, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), "_", "-")
	if key == "" {
		return fallbackLabelLocale, fmt.Errorf("empty locale, falling back to %s", fallbackLabelLocale)
	}

	if suffix, ok := LocaleCodeMapping[key]; ok {
		return suffix, nil
	}
	if code, ok := LocaleNames[key]; ok {
		return LocaleCodeMapping[code], nil
	}

	tag, err := language.Parse(key)
	if err != nil {
		return fallbackLabelLocale, fmt.Errorf("locale %q not recognized, falling back to %s", input, fallbackLabelLocale)
	}

	base, _ := tag.Base()
	if region, conf := tag.Region(); conf == language.Exact {
		if suffix, ok := LocaleCodeMapping[base.String()+"-"+strings.ToLower(region.String())]; ok {
			return suffix, nil
		}
	}
	if suffix, ok := LocaleCodeMapping[base.String()]; ok {
		return suffix, nil
	}

	return fallbackLabelLocale, fmt.Errorf("no labels for locale %q, falling back to %s", input, fallbackLabelLocale)
}

// LabelURL fills the label URL template with the locale's file suffix.
// Templates without a verb are returned unchanged.
func LabelURL(template, locale string) string {
	suffix, _ := LabelLocale(locale)
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, suffix)
}

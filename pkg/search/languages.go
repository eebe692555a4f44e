package search

import (
	"os"
	"regexp"
	"slices"
	"strings"
)

// Languages are the language codes accepted by the lr/hl parameters.
var Languages = []string{
	"af", "ar", "be", "bg", "ca", "cs", "da", "de", "el", "en", "eo", "es",
	"et", "fa", "fi", "fr", "hi", "hr", "hu", "hy", "id", "is", "it", "iw",
	"ja", "ko", "lt", "lv", "nl", "no", "pl", "pt", "ro", "ru", "sk", "sl",
	"sr", "sv", "sw", "th", "tl", "tr", "uk", "vi", "zh-CN", "zh-TW",
}

var localeRe = regexp.MustCompile(`^([^_@.]+)([_@.].+)?$`)

// FindLanguage maps a POSIX locale such as "en_US.UTF-8" to a language code.
// It returns "" when the locale does not name a known language.
func FindLanguage(locale string) string {
	switch {
	case strings.HasPrefix(locale, "zh_CN"):
		return "zh-CN"
	case strings.HasPrefix(locale, "zh_TW"):
		return "zh-TW"
	}
	m := localeRe.FindStringSubmatch(locale)
	if m == nil {
		return ""
	}
	if slices.Contains(Languages, m[1]) {
		return m[1]
	}
	return ""
}

// NativeLanguage derives the language from the LANG environment variable.
func NativeLanguage() string {
	return FindLanguage(os.Getenv("LANG"))
}

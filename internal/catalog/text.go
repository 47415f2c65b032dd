package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedLanguage is returned for language codes that cannot be parsed.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// nameReplacer corrects characters known to break search and sorting.
var nameReplacer = strings.NewReplacer(
	"—", "-", // em dash
	"–", "-", // en dash
	"‒", "-", // figure dash
	"’", "'",
	"\u00a0", " ",
)

// CleanName normalizes a set or card display name.
func CleanName(name string) string {
	return strings.TrimSpace(norm.NFC.String(nameReplacer.Replace(name)))
}

// NormalizeReleaseDate rewrites "YYYY/MM/DD" to "YYYY-MM-DD".
// Returns nil when the date cannot be parsed.
func NormalizeReleaseDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			s := t.Format("2006-01-02")
			return &s
		}
	}

	return nil
}

// ParseLanguage validates a language code and returns its base language,
// e.g. "fr-FR" -> "fr". An empty code defaults to English.
func ParseLanguage(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "en", nil
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	base, conf := tag.Base()
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	return base.String(), nil
}

package meta

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName derives the resolution key for a display name. The result
// is NFC-normalized, underscore-free, whitespace-collapsed upper case.
// Resolution and dedup compare normalized values, never raw display text.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	name = CleanString(name)
	return strings.ToUpper(name)
}

// SortName moves a leading ignored article to a trailing ", Article"
// suffix: "The Wall" becomes "Wall, The". Articles are matched
// case-insensitively against whole leading words.
func SortName(name string, ignoredArticles []string) string {
	name = CleanString(name)
	if name == "" {
		return ""
	}

	first, rest, found := strings.Cut(name, " ")
	if !found || rest == "" {
		return name
	}
	for _, article := range ignoredArticles {
		if strings.EqualFold(first, article) {
			return rest + ", " + first
		}
	}
	return name
}

// CleanString applies the baseline text hygiene shared by every derived
// field: NFC normalization, underscores to spaces, control characters
// removed, whitespace collapsed.
func CleanString(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "_", " ")
	s = removeControlChars(s)
	return collapseWhitespace(s)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

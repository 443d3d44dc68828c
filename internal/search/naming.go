package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
)

// Casing is one naming convention.
type Casing int

const (
	Camel Casing = iota
	Pascal
	Snake
	UpperSnake
	Kebab
	UpperKebab
	Title
	Lower
	Upper
)

var allCasings = []Casing{Camel, Pascal, Snake, UpperSnake, Kebab, UpperKebab, Title, Lower, Upper}

var (
	lowerCaser = cases.Lower(textlang.Und)
	upperCaser = cases.Upper(textlang.Und)
	titleCaser = cases.Title(textlang.Und)
)

// SplitWords breaks an identifier or phrase into lower-case words at
// separators and case boundaries. "HTTPServer_id" yields http, server, id.
func SplitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, lowerCaser.String(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Format joins words in the given convention.
func Format(words []string, c Casing) string {
	mapped := make([]string, len(words))
	for i, w := range words {
		switch c {
		case Camel:
			if i == 0 {
				mapped[i] = lowerCaser.String(w)
			} else {
				mapped[i] = titleCaser.String(w)
			}
		case Pascal, Title:
			mapped[i] = titleCaser.String(w)
		case UpperSnake, UpperKebab, Upper:
			mapped[i] = upperCaser.String(w)
		default:
			mapped[i] = lowerCaser.String(w)
		}
	}
	switch c {
	case Snake, UpperSnake:
		return strings.Join(mapped, "_")
	case Kebab, UpperKebab:
		return strings.Join(mapped, "-")
	case Title, Lower, Upper:
		return strings.Join(mapped, " ")
	default:
		return strings.Join(mapped, "")
	}
}

// ReplaceNamingAgnostic replaces every naming-convention variant of search
// in text with replacement rendered in the same convention.
func ReplaceNamingAgnostic(text, search, replacement string) (string, error) {
	from, to := SplitWords(search), SplitWords(replacement)
	if len(from) == 0 {
		return "", ErrEmptySearch
	}
	variants := map[string]string{}
	var alts []string
	for _, c := range allCasings {
		v := Format(from, c)
		if _, ok := variants[v]; ok {
			continue
		}
		variants[v] = Format(to, c)
		alts = append(alts, v)
	}
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	for i, a := range alts {
		alts[i] = regexp2.Escape(a)
	}
	re, err := regexp2.Compile(strings.Join(alts, "|"), regexp2.None)
	if err != nil {
		return "", err
	}
	re.MatchTimeout = DefaultLimits.MatchTimeout
	return re.ReplaceFunc(text, func(m regexp2.Match) string {
		return variants[m.String()]
	}, -1, -1)
}

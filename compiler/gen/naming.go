package gen

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deepakshirkem/spiderly/compiler/load"
)

// JSONName returns the wire name of a field: "RoleDisplayName" becomes
// "roleDisplayName".
func JSONName(field string) string {
	if field == "" {
		return ""
	}
	return inflect.CamelizeDownFirst(field)
}

// ParseLocale parses the locale suffix of a translation directive:
// "En" is English and "SrLatnRS" is Serbian in Latin script for Serbia.
func ParseLocale(s string) (language.Tag, error) {
	var parts []string
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !unicode.IsUpper(runes[i]) {
			return language.Und, fmt.Errorf("gen: malformed locale %q", s)
		}
		j := i + 1
		if j < len(runes) && unicode.IsLower(runes[j]) {
			for j < len(runes) && unicode.IsLower(runes[j]) {
				j++
			}
		} else {
			for j < len(runes) && unicode.IsUpper(runes[j]) {
				j++
			}
		}
		parts = append(parts, string(runes[i:j]))
		i = j
	}
	if len(parts) == 0 {
		return language.Und, fmt.Errorf("gen: empty locale")
	}
	return language.Parse(strings.Join(parts, "-"))
}

// Label is the translated wording of an entity or property in one locale.
type Label struct {
	Singular string `yaml:"singular"`
	Plural   string `yaml:"plural,omitempty"`
	Excel    string `yaml:"excel,omitempty"`
}

// Terms maps BCP 47 locale tags to labels.
type Terms map[string]Label

// Locales returns the locale tags in sorted order.
func (t Terms) Locales() []string {
	ls := make([]string, 0, len(t))
	for l := range t {
		ls = append(ls, l)
	}
	slices.Sort(ls)
	return ls
}

const translatePrefix = "Translate"

// termsOf derives the labels of a declaration from its Translate
// directives. English is always present, defaulting to the humanized name.
func termsOf(name string, attrs load.Attributes) (Terms, error) {
	terms := Terms{}
	set := func(tag language.Tag, apply func(*Label)) {
		l := terms[tag.String()]
		apply(&l)
		terms[tag.String()] = l
	}
	for _, a := range attrs.WithPrefix(translatePrefix) {
		rest := strings.TrimPrefix(a.Name, translatePrefix)
		kind := ""
		for _, k := range []string{"Plural", "Excel"} {
			if strings.HasPrefix(rest, k) {
				kind, rest = k, strings.TrimPrefix(rest, k)
				break
			}
		}
		tag, err := ParseLocale(rest)
		if err != nil {
			return nil, fmt.Errorf("directive %s: %w", a.Name, err)
		}
		value := a.Value
		switch kind {
		case "Plural":
			set(tag, func(l *Label) { l.Plural = value })
		case "Excel":
			set(tag, func(l *Label) { l.Excel = value })
		default:
			set(tag, func(l *Label) { l.Singular = value })
		}
	}
	en := language.English.String()
	if l := terms[en]; l.Singular == "" {
		l.Singular = inflect.Humanize(name)
		terms[en] = l
	}
	for locale, l := range terms {
		tag := language.Make(locale)
		if l.Singular == "" {
			l.Singular = name
		}
		if l.Plural == "" {
			if locale == en {
				l.Plural = inflect.Pluralize(l.Singular)
			} else {
				l.Plural = l.Singular
			}
		}
		if l.Excel == "" {
			l.Excel = cases.Title(tag).String(l.Plural)
		}
		terms[locale] = l
	}
	return terms, nil
}

// minSimilarity is the normalized edit similarity a candidate needs to be
// suggested.
const minSimilarity = 0.6

// Suggest returns the candidate closest to name, or "" when none is close
// enough to be a likely typo.
func Suggest(name string, candidates []string) string {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if score := similarity(strings.ToLower(name), strings.ToLower(c)); score >= minSimilarity && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// similarity is 1 minus the edit distance of a and b over the longer length.
func similarity(a, b string) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 0
	}
	return 1 - float64(levenshtein.Distance(a, b, nil))/float64(n)
}

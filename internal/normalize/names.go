// Package normalize canonicalizes provider depth records: team names to
// team IDs, position and status vocabularies, ranks and player match keys.
package normalize

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSuffixes are generational suffixes dropped from player keys.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
	"v":   true,
}

// foldDiacritics strips combining marks so "José" and "Jose" compare equal.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// PlayerKey derives the name-matching key for a player:
//  1. Trimming and folding diacritics
//  2. Dropping generational suffixes (Jr., Sr., II-V) after the first word
//  3. Collapsing whitespace and lower-casing
func PlayerKey(name string) string {
	name = strings.TrimSpace(foldDiacritics(name))
	if name == "" {
		return ""
	}

	words := strings.Fields(strings.ToLower(name))
	kept := words[:0]
	for i, w := range words {
		w = strings.TrimRight(w, ",")
		if w == "" {
			continue
		}
		if i > 0 && nameSuffixes[strings.Trim(w, ".")] {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

// NameSet collects distinct names, such as unmapped teams.
type NameSet map[string]struct{}

// Add records name. Blank names are ignored.
func (s NameSet) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Merge adds every name from other.
func (s NameSet) Merge(other NameSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Head returns at most limit sorted names. A limit <= 0 returns all.
func (s NameSet) Head(limit int) []string {
	all := s.Sorted()
	if limit > 0 && len(all) > limit {
		return all[:limit]
	}
	return all
}

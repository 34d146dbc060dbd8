// Package normalize maps raw CSV header text to identifiers that are safe to
// use as warehouse column names.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxIdentifierLen is the longest identifier emitted (PostgreSQL's limit).
const MaxIdentifierLen = 63

var reserved = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "insert": {}, "update": {},
	"delete": {}, "create": {}, "drop": {}, "table": {}, "column": {},
	"order": {}, "group": {}, "user": {},
}

// Identifier converts one header into a lowercase ASCII identifier:
//  1. trim whitespace and surrounding quotes, lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. keep [a-z0-9_]; space, '-', '.', '/', '(', ')', '?' become '_'; drop others
//  4. collapse and trim underscores
//  5. prefix reserved words with "col_" and a leading digit with "_"
//  6. truncate to MaxIdentifierLen
//
// An empty result is returned as "" so the caller can assign a placeholder.
func Identifier(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ToLower(s)

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case strings.ContainsRune("_ -./()?\t", r):
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return ""
	}

	if _, ok := reserved[name]; ok {
		name = "col_" + name
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return truncate(name, MaxIdentifierLen)
}

// Columns normalizes an ordered header. The result has the same length and
// order as headers and its names are pairwise distinct:
//   - a header that normalizes to "" becomes "column_<n>" (1-based position)
//   - the k-th repeat of a name gets the suffix "_k" (k starting at 2),
//     skipping suffixes already used by another column
func Columns(headers []string) []string {
	out := make([]string, len(headers))
	taken := make(map[string]struct{}, len(headers))

	// Reserve every base name first so a later verbatim "x_2" keeps its name
	// and an earlier duplicate "x" skips over it.
	bases := make([]string, len(headers))
	for i, h := range headers {
		name := Identifier(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		bases[i] = name
	}
	seen := make(map[string]int, len(headers))
	for _, name := range bases {
		seen[name]++
	}

	next := make(map[string]int, len(headers))
	for i, name := range bases {
		if _, dup := taken[name]; !dup {
			taken[name] = struct{}{}
			out[i] = name
			continue
		}
		k := next[name]
		if k < 2 {
			k = 2
		}
		for {
			cand := withSuffix(name, k)
			_, used := taken[cand]
			_, later := seen[cand]
			if !used && !later {
				out[i] = cand
				taken[cand] = struct{}{}
				next[name] = k + 1
				break
			}
			k++
		}
	}
	return out
}

// withSuffix appends "_k", truncating the base so the result fits.
func withSuffix(name string, k int) string {
	suffix := "_" + strconv.Itoa(k)
	return truncate(name, MaxIdentifierLen-len(suffix)) + suffix
}

// truncate keeps the first n bytes of an ASCII identifier.
func truncate(s string, n int) string {
	if len(s) > n {
		return strings.TrimRight(s[:n], "_")
	}
	return s
}

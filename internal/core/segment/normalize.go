package segment

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PDF extraction often yields decomposed Hangul jamo and zero-width joiners,
// compose first so regexes and the model see the same text a reader does
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// Normalize composes s to NFC and drops format characters
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return s
	}
	return out
}

// CollapseSpace replaces every whitespace run (newlines included) with one space and trims
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clean strips stray double and single quote characters and trims the result
func Clean(s string) string {
	s = strings.NewReplacer(`"`, "", `'`, "", "“", "", "”", "", "‘", "", "’", "").Replace(s)
	return strings.TrimSpace(s)
}

package segment

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var enumMarker = regexp.MustCompile(`(\d+[)）.])\s*`)

// span locates one page inside the joined document
type span struct {
	start int
	page  Page
}

func (s *Segmenter) numbered(pages []Page) []draft {
	doc, spans := joinPages(pages)
	if doc == "" {
		return nil
	}

	var marks [][]int
	for _, loc := range enumMarker.FindAllStringSubmatchIndex(doc, -1) {
		if isMarker(doc, loc[2], loc[3]) {
			marks = append(marks, loc)
		}
	}

	out := make([]draft, 0, len(marks))
	for i, loc := range marks {
		end := len(doc)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		text := CollapseSpace(doc[loc[1]:end])
		if text == "" {
			continue
		}
		p := pageAt(spans, loc[0])
		out = append(out, draft{page: p.Index, text: text, meta: p.Metadata})
	}
	if len(marks) == 0 {
		s.log.Debug().Int("pages", len(pages)).Msg("no enumeration markers found")
	}
	return out
}

// isMarker applies the context rules the regexp cannot express: the marker starts the text or
// follows whitespace, and a dot marker is not the dot inside "1.2"
func isMarker(doc string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(doc[:start])
		if !unicode.IsSpace(r) {
			return false
		}
	}
	if doc[end-1] == '.' && end < len(doc) {
		r, _ := utf8.DecodeRuneInString(doc[end:])
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// joinPages normalizes every page and joins them with a newline, recording where each begins
func joinPages(pages []Page) (string, []span) {
	var b strings.Builder
	spans := make([]span, 0, len(pages))
	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		spans = append(spans, span{start: b.Len(), page: p})
		b.WriteString(Normalize(p.Text))
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", nil
	}
	return b.String(), spans
}

func pageAt(spans []span, off int) Page {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].start > off }) - 1
	if i < 0 {
		i = 0
	}
	return spans[i].page
}

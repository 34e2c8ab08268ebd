package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	quoteOpen  = '\uE000'
	quoteClose = '\uE001'
)

var (
	quotedSpan   = regexp.MustCompile(`"[^"]+?"|“[^”]+?”`)
	placeholder  = regexp.MustCompile(`\x{E000}([0-9]+)\x{E001}`)
	loneHeading  = regexp.MustCompile(`^\d+\.\d+$`)
	particleHead = regexp.MustCompile(`다\.\s*\d+\.\d+`)
)

// abbreviations never end a sentence when followed by a dot
var abbreviations = map[string]struct{}{
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "mr": {}, "mrs": {}, "ms": {}, "dr": {},
	"no": {}, "art": {}, "sec": {}, "para": {}, "cf": {}, "inc": {}, "co": {}, "ltd": {},
}

// splitSentences is the boundary detector seam
var splitSentences = detectSentences

func (s *Segmenter) sentences(pages []Page) []draft {
	var out []draft
	for _, p := range pages {
		for _, text := range s.splitText(p.Text) {
			out = append(out, draft{page: p.Index, text: text, meta: p.Metadata})
		}
	}
	return out
}

// splitText runs the sentence pipeline over one page of text
func (s *Segmenter) splitText(text string) []string {
	text = CollapseSpace(Normalize(text))
	if text == "" {
		return nil
	}

	protected, quotes := protectQuotes(text)

	var parts []string
	for _, sent := range splitSentences(protected) {
		for _, part := range forceSplit(sent) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			restored, err := restoreQuotes(part, quotes)
			if err != nil {
				s.log.Warn().Err(err).Str("part", part).Msg("skipping unit")
				continue
			}
			parts = append(parts, strings.TrimSpace(restored))
		}
	}
	return mergeLoneHeadings(parts)
}

// protectQuotes swaps every quoted span for a numbered placeholder
func protectQuotes(text string) (string, []string) {
	var quotes []string
	out := quotedSpan.ReplaceAllStringFunc(text, func(m string) string {
		quotes = append(quotes, m)
		return string(quoteOpen) + strconv.Itoa(len(quotes)-1) + string(quoteClose)
	})
	return out, quotes
}

// restoreQuotes puts protected spans back verbatim
func restoreQuotes(part string, quotes []string) (string, error) {
	var bad error
	out := placeholder.ReplaceAllStringFunc(part, func(m string) string {
		idx, err := strconv.Atoi(strings.Trim(m, string([]rune{quoteOpen, quoteClose})))
		if err != nil || idx < 0 || idx >= len(quotes) {
			bad = fmt.Errorf("unknown quote placeholder %q: %w", m, ErrSegmentation)
			return m
		}
		return quotes[idx]
	})
	if bad != nil {
		return "", bad
	}
	if strings.ContainsRune(out, quoteOpen) || strings.ContainsRune(out, quoteClose) {
		return "", fmt.Errorf("unbalanced quote placeholder: %w", ErrSegmentation)
	}
	return out, nil
}

// forceSplit cuts after "다." when a "N.N" heading follows, with or without a space
func forceSplit(sent string) []string {
	locs := particleHead.FindAllStringIndex(sent, -1)
	if len(locs) == 0 {
		return []string{sent}
	}
	out := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		cut := loc[0] + len("다.")
		out = append(out, sent[start:cut])
		start = cut
	}
	return append(out, sent[start:])
}

// mergeLoneHeadings folds a unit that is only "N.N" into the previous unit, or into the
// next one when it leads the page
func mergeLoneHeadings(parts []string) []string {
	out := make([]string, 0, len(parts))
	var pending string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if loneHeading.MatchString(p) {
			if len(out) > 0 {
				out[len(out)-1] = out[len(out)-1] + " " + p
			} else if pending != "" {
				pending = pending + " " + p
			} else {
				pending = p
			}
			continue
		}
		if pending != "" {
			p = pending + " " + p
			pending = ""
		}
		out = append(out, p)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

// detectSentences cuts text after terminal punctuation that is followed by whitespace.
// Closing quotes and brackets right after the punctuation stay with the sentence.
// Numeric list markers like "1." and common abbreviations are not boundaries
func detectSentences(text string) []string {
	rs := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(rs); i++ {
		if !isTerminal(rs[i]) {
			continue
		}
		j := i + 1
		for j < len(rs) && (isTerminal(rs[j]) || isCloser(rs[j])) {
			j++
		}
		if j < len(rs) && !unicode.IsSpace(rs[j]) {
			i = j - 1
			continue
		}
		if rs[i] == '.' && j == i+1 && !endsSentence(rs[start:i]) {
			continue
		}
		if sent := strings.TrimSpace(string(rs[start:j])); sent != "" {
			out = append(out, sent)
		}
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(string(rs[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

// endsSentence inspects the word before a dot
func endsSentence(before []rune) bool {
	k := len(before)
	for k > 0 && !unicode.IsSpace(before[k-1]) {
		k--
	}
	word := string(before[k:])
	if word == "" {
		return true
	}
	if isDigits(word) {
		return false
	}
	if _, ok := abbreviations[strings.ToLower(word)]; ok {
		return false
	}
	w := []rune(word)
	return !(len(w) == 1 && unicode.IsLetter(w[0]) && w[0] < unicode.MaxLatin1)
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…':
		return true
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case ')', ']', '}', '"', '\'', '”', '’', '」', '』', '）', quoteClose:
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Package segment splits contract text into addressable units.
//
// Two strategies exist and a run uses exactly one of them:
//
//   - sentence: whitespace is collapsed, quoted spans are protected, sentences are cut on
//     terminal punctuation, lone "N.N" headings are merged back and "다." followed by a
//     "N.N" heading is always split
//   - numbered: the text is cut on enumeration markers such as "3.", "3)" or "3）" and the
//     preamble before the first marker is dropped
//
// Unit ids are dense and start at 1. They are assigned once over the final slice, so an id
// is a pure function of the unit's position in reading order.
package segment

import (
	"fmt"
	"strings"

	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/logger"
)

// ErrSegmentation marks a failure while splitting text
var ErrSegmentation = perr.New(perr.ErrorCodeInvalidArgument, "segmentation failed")

// Mode selects the split strategy
type Mode string

const (
	// ModeSentence splits on sentence boundaries
	ModeSentence Mode = "sentence"
	// ModeNumbered splits on enumeration markers
	ModeNumbered Mode = "numbered"
)

// ParseMode maps a user supplied name to a Mode; empty means numbered
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeNumbered), "numbering", "section":
		return ModeNumbered, nil
	case string(ModeSentence), "sentences":
		return ModeSentence, nil
	default:
		return "", perr.InvalidArgf("unknown segmentation mode %q", s)
	}
}

// Page is one page of extracted document text
// Index is the zero based page index reported by the loader
type Page struct {
	Index    int
	Text     string
	Metadata map[string]string
}

// Unit is one addressable segment of a document
type Unit struct {
	ID         int               `json:"id"`
	PageNumber int               `json:"page_number"`
	Text       string            `json:"text"`
	Source     map[string]string `json:"source_metadata,omitempty"`
}

// draft is a unit before ids are assigned
type draft struct {
	page int
	text string
	meta map[string]string
}

// Segmenter splits pages into units with a fixed mode
type Segmenter struct {
	mode  Mode
	clean bool
	log   *logger.Logger
}

// Option configures a Segmenter
type Option func(*Segmenter)

// WithClean strips stray quote characters from every emitted unit
func WithClean(on bool) Option { return func(s *Segmenter) { s.clean = on } }

// New returns a Segmenter for mode
func New(mode Mode, opts ...Option) *Segmenter {
	if mode == "" {
		mode = ModeNumbered
	}
	s := &Segmenter{mode: mode, log: logger.Named("segment")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Mode reports the configured strategy
func (s *Segmenter) Mode() Mode { return s.mode }

// Segment splits pages into ordered units. It never fails: a total failure yields the whole
// input as one unit, and an input with no text yields no units
func (s *Segmenter) Segment(pages []Page) []Unit {
	drafts, err := s.run(pages)
	if err != nil {
		s.log.Warn().Err(err).Str("mode", string(s.mode)).Msg("segmentation failed, using whole document as one unit")
		drafts = wholeDocument(pages)
	}

	out := make([]Unit, 0, len(drafts))
	for _, d := range drafts {
		text := d.text
		if s.clean {
			text = Clean(text)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, Unit{PageNumber: d.page + 1, Text: text, Source: d.meta})
	}
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// run dispatches to the strategy and converts panics into ErrSegmentation
func (s *Segmenter) run(pages []Page) (drafts []draft, err error) {
	defer func() {
		if v := recover(); v != nil {
			drafts = nil
			err = fmt.Errorf("%v: %w", v, ErrSegmentation)
		}
	}()
	switch s.mode {
	case ModeSentence:
		return s.sentences(pages), nil
	case ModeNumbered:
		return s.numbered(pages), nil
	default:
		return nil, fmt.Errorf("mode %q: %w", s.mode, ErrSegmentation)
	}
}

func wholeDocument(pages []Page) []draft {
	if len(pages) == 0 {
		return nil
	}
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	text := CollapseSpace(Normalize(strings.Join(parts, " ")))
	if text == "" {
		return nil
	}
	return []draft{{page: pages[0].Index, text: text, meta: pages[0].Metadata}}
}

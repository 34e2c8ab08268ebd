// Package analyze classifies one content unit against retrieved reference passages with a
// language model.
//
// Analyze never returns an error. Model failures, timeouts and unreadable output become error
// verdicts that keep whatever raw text the model produced.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contractlens/internal/core/segment"
	perr "contractlens/internal/platform/errors"
	"contractlens/internal/platform/logger"
)

const (
	// FlagViolation is the detection_flag value that marks a violation
	FlagViolation = "Y"
	// FlagClear is the detection_flag value for a compliant unit
	FlagClear = "N"

	fieldFlag       = "detection_flag"
	fieldReason     = "reason"
	fieldSuggestion = "suggestion"

	// DefaultTimeout bounds each model call
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTokens caps the completion length
	DefaultMaxTokens = 500

	quotaHint = "the model provider reports insufficient credits or an exhausted quota; " +
		"add credits to the account or point CORE_LLM_PROVIDER/CORE_LLM_MODEL at another model"
)

var (
	// ErrModelCall wraps any failure talking to the model
	ErrModelCall = perr.New(perr.ErrorCodeUpstream, "model call failed")
	// ErrQuota is returned by providers when the account is out of credits
	ErrQuota = perr.New(perr.ErrorCodeUpstream, "model quota exhausted")
)

// Request is a single prompt completion
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer is a language model that turns a prompt into text
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Verdict is the immutable result of analyzing one unit
type Verdict struct {
	UnitID      int      `json:"unit_id"`
	PageNumber  int      `json:"page_number"`
	Text        string   `json:"text"`
	IsViolation bool     `json:"is_violation"`
	Flag        string   `json:"detection_flag,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
	References  []string `json:"references,omitempty"`
	RawOutput   string   `json:"raw_model_output"`
	ParseTier   Tier     `json:"parse_tier"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the unit could not be classified
func (v Verdict) Failed() bool { return v.Error != "" }

// Analyzer renders prompts and interprets model output
type Analyzer struct {
	llm       Completer
	tmpl      *Template
	timeout   time.Duration
	maxTokens int
	log       *logger.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTemplate replaces the built-in prompt
func WithTemplate(t *Template) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.tmpl = t
		}
	}
}

// WithTimeout overrides the per call deadline
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxTokens overrides the completion cap
func WithMaxTokens(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// New returns an Analyzer over llm
func New(llm Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:       llm,
		tmpl:      DefaultTemplate(),
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxTokens,
		log:       logger.Named("analyze"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Prompt renders the prompt for unit with passages joined in retrieval order
func (a *Analyzer) Prompt(unit segment.Unit, passages []string) string {
	return a.tmpl.Render(strings.Join(passages, "\n\n"), unit.Text)
}

// Analyze classifies unit. The returned verdict carries an error message instead of a flag
// when the model call or every parse tier fails
func (a *Analyzer) Analyze(ctx context.Context, unit segment.Unit, passages []string) (v Verdict) {
	v = Verdict{UnitID: unit.ID, PageNumber: unit.PageNumber, Text: unit.Text, References: passages}
	log := logger.C(ctx).With().Str("component", "analyze").Int("unit_id", unit.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("analyzer panic")
			v.IsViolation = false
			v.Error = fmt.Sprintf("analyzer panic: %v", r)
		}
	}()

	raw, err := a.complete(ctx, a.Prompt(unit, passages))
	if err != nil {
		log.Warn().Err(err).Msg("model call failed")
		v.Error = Remediate(err)
		return v
	}
	v.RawOutput = raw

	res := Parse(raw)
	if !res.OK() {
		log.Warn().Err(res.Err).Str("raw", raw).Msg("model output unparseable")
		v.Error = res.Err.Error()
		return v
	}
	v.ParseTier = res.Tier

	flag := strings.ToUpper(fieldString(res.Fields[fieldFlag]))
	if flag != FlagViolation && flag != FlagClear {
		log.Warn().Str("flag", flag).Msg("unexpected detection_flag")
		v.Error = fmt.Sprintf("detection_flag %q is neither %s nor %s: %v", flag, FlagViolation, FlagClear, ErrResponseParse)
		return v
	}
	v.Flag = flag
	v.IsViolation = flag == FlagViolation
	v.Reason = fieldString(res.Fields[fieldReason])
	v.Suggestion = fieldString(res.Fields[fieldSuggestion])
	log.Debug().Str("tier", res.Tier.String()).Bool("violation", v.IsViolation).Msg("unit analyzed")
	return v
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("no model configured: %w", ErrModelCall)
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.llm.Complete(cctx, Request{Prompt: prompt, Temperature: 0, MaxTokens: a.maxTokens})
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s: %w", a.timeout, ErrModelCall)
		}
		return "", fmt.Errorf("%w: %w", ErrModelCall, err)
	}
	return out, nil
}

// IsQuota reports whether err means the provider account is out of credits
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuota) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"insufficient credits", "insufficient_quota", "exceeded your current quota", "quota exceeded"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Remediate turns a model error into the message stored on a verdict
func Remediate(err error) string {
	if IsQuota(err) {
		return quotaHint
	}
	return err.Error()
}

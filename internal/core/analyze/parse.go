package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	perr "contractlens/internal/platform/errors"
)

// ErrResponseParse marks model output no tier could read
var ErrResponseParse = perr.New(perr.ErrorCodeUpstream, "model response unparseable")

// Tier names the parse strategy that produced a result
type Tier int

const (
	// TierNone means every strategy failed
	TierNone Tier = iota
	// TierStrict is a plain JSON object
	TierStrict
	// TierQuoteNormalized is JSON after turning single quotes into double quotes
	TierQuoteNormalized
	// TierLiteral is the permissive literal parser
	TierLiteral
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierQuoteNormalized:
		return "quote_normalized"
	case TierLiteral:
		return "literal"
	default:
		return "none"
	}
}

// MarshalText lets tiers appear by name in JSON
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText reads a tier name, unknown names decode as TierNone
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "strict":
		*t = TierStrict
	case "quote_normalized":
		*t = TierQuoteNormalized
	case "literal":
		*t = TierLiteral
	default:
		*t = TierNone
	}
	return nil
}

// ParseResult is the outcome of reading one model response
type ParseResult struct {
	Tier   Tier
	Fields map[string]any
	Err    error
}

// OK reports whether any tier produced an object
func (r ParseResult) OK() bool { return r.Err == nil && r.Fields != nil }

// Parse tries each tier in order and returns the first that yields an object
func Parse(raw string) ParseResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParseResult{Err: fmt.Errorf("empty response: %w", ErrResponseParse)}
	}

	if m, err := jsonObject(s); err == nil {
		return ParseResult{Tier: TierStrict, Fields: m}
	}
	if m, err := jsonObject(strings.ReplaceAll(s, "'", `"`)); err == nil {
		return ParseResult{Tier: TierQuoteNormalized, Fields: m}
	}
	m, err := literalObject(s)
	if err == nil {
		return ParseResult{Tier: TierLiteral, Fields: m}
	}
	return ParseResult{Err: fmt.Errorf("%v: %w", err, ErrResponseParse)}
}

func jsonObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("not an object")
	}
	return m, nil
}

// literalObject strips markdown fences and surrounding prose, then runs the literal parser
func literalObject(s string) (map[string]any, error) {
	s = stripFence(s)
	if !strings.HasPrefix(s, "{") {
		i, j := strings.Index(s, "{"), strings.LastIndex(s, "}")
		if i < 0 || j < i {
			return nil, fmt.Errorf("no object in response")
		}
		s = s[i : j+1]
	}
	v, err := parseLiteral(s)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("literal is %T, not an object", v)
	}
	return m, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	i := strings.Index(s, "```")
	if i < 0 {
		return s
	}
	body := s[i+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	if j := strings.Index(body, "```"); j >= 0 {
		body = body[:j]
	}
	return strings.TrimSpace(body)
}

// fieldString renders a decoded value as text
func fieldString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool:
		if x {
			return "Y"
		}
		return "N"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

package analyze

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contractlens/internal/core/segment"
	"contractlens/internal/platform/testkit"
)

type fakeLLM struct {
	out   string
	err   error
	delay time.Duration
	got   []Request
}

func (f *fakeLLM) Complete(ctx context.Context, req Request) (string, error) {
	f.got = append(f.got, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

type panicLLM struct{}

func (panicLLM) Complete(context.Context, Request) (string, error) { panic("kaboom") }

var unit = segment.Unit{ID: 7, PageNumber: 2, Text: "을은 갑에게 위약금 전액을 즉시 지급한다"}

func TestParse_Tiers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		tier Tier
		flag string
	}{
		{"strict", `{"detection_flag": "Y", "reason": "r", "suggestion": "s"}`, TierStrict, "Y"},
		{"single quotes", `{'detection_flag': 'N', 'reason': 'ok'}`, TierQuoteNormalized, "N"},
		{"python literal", `{'detection_flag': 'Y', 'reason': "갑's duty", 'extra': None, 'ok': True,}`, TierLiteral, "Y"},
		{"fenced", "```json\n{\"detection_flag\": \"N\", \"reason\": \"fine\",}\n```", TierLiteral, "N"},
		{"prose around", "결과는 다음과 같습니다: {'detection_flag': 'Y', 'reason': 'x', 'items': [1, 2,],} 끝", TierLiteral, "Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.raw)
			if !res.OK() {
				t.Fatalf("Parse failed: %v", res.Err)
			}
			if res.Tier != tt.tier {
				t.Fatalf("tier = %s, want %s", res.Tier, tt.tier)
			}
			if fieldString(res.Fields["detection_flag"]) != tt.flag {
				t.Fatalf("fields = %v", res.Fields)
			}
		})
	}
}

func TestParse_Failures(t *testing.T) {
	for _, raw := range []string{"", "   ", "I cannot answer that.", `["Y", "N"]`, `{'detection_flag': 'Y'`, "null"} {
		res := Parse(raw)
		if res.OK() || !errors.Is(res.Err, ErrResponseParse) || res.Tier != TierNone {
			t.Fatalf("Parse(%q) = %+v", raw, res)
		}
	}
}

func TestParseLiteral_Values(t *testing.T) {
	v, err := parseLiteral(`{"a": [1, -2.5, 'x\'y', "é"], 'b': {'c': False, 'd': null}}`)
	if err != nil {
		t.Fatalf("parseLiteral: %v", err)
	}
	m := v.(map[string]any)
	list := m["a"].([]any)
	if list[0] != float64(1) || list[1] != -2.5 || list[2] != "x'y" || list[3] != "é" {
		t.Fatalf("list = %#v", list)
	}
	inner := m["b"].(map[string]any)
	if inner["c"] != false || inner["d"] != nil {
		t.Fatalf("inner = %#v", inner)
	}
}

func TestAnalyze_Violation(t *testing.T) {
	llm := &fakeLLM{out: `{"detection_flag": "Y", "reason": "과도한 위약금", "suggestion": "상한을 둔다"}`}
	a := New(llm)
	v := a.Analyze(context.Background(), unit, []string{"약관법 제8조", "민법 제398조"})

	if !v.IsViolation || v.Failed() || v.Flag != FlagViolation {
		t.Fatalf("verdict = %+v", v)
	}
	if v.UnitID != 7 || v.PageNumber != 2 || v.Reason != "과도한 위약금" || v.Suggestion != "상한을 둔다" {
		t.Fatalf("verdict = %+v", v)
	}
	if v.ParseTier != TierStrict {
		t.Fatalf("tier = %s", v.ParseTier)
	}

	req := llm.got[0]
	if req.Temperature != 0 || req.MaxTokens != DefaultMaxTokens {
		t.Fatalf("request = %+v", req)
	}
	testkit.MustContain(t, req.Prompt, "약관법 제8조\n\n민법 제398조")
	testkit.MustContain(t, req.Prompt, unit.Text)
	testkit.MustContain(t, req.Prompt, `{"detection_flag": "Y 또는 N"`)
}

func TestAnalyze_Clear(t *testing.T) {
	v := New(&fakeLLM{out: `{'detection_flag': 'n', 'reason': '문제 없음'}`}).Analyze(context.Background(), unit, nil)
	if v.IsViolation || v.Failed() || v.Flag != FlagClear {
		t.Fatalf("verdict = %+v", v)
	}
}

func TestAnalyze_MalformedKeepsRaw(t *testing.T) {
	raw := "detection_flag: maybe {{"
	v := New(&fakeLLM{out: raw}).Analyze(context.Background(), unit, nil)
	if !v.Failed() || v.IsViolation {
		t.Fatalf("verdict = %+v", v)
	}
	if v.RawOutput != raw {
		t.Fatalf("raw output altered: %q", v.RawOutput)
	}
}

func TestAnalyze_UnknownFlag(t *testing.T) {
	v := New(&fakeLLM{out: `{"detection_flag": "위반"}`}).Analyze(context.Background(), unit, nil)
	if !v.Failed() || v.IsViolation {
		t.Fatalf("verdict = %+v", v)
	}
}

func TestAnalyze_ModelErrors(t *testing.T) {
	t.Run("generic", func(t *testing.T) {
		v := New(&fakeLLM{err: errors.New("connection refused")}).Analyze(context.Background(), unit, nil)
		if !v.Failed() || !strings.Contains(v.Error, "connection refused") {
			t.Fatalf("verdict = %+v", v)
		}
	})
	t.Run("quota rewritten", func(t *testing.T) {
		v := New(&fakeLLM{err: errors.New("402: Insufficient credits. Add more using https://openrouter.ai")}).
			Analyze(context.Background(), unit, nil)
		if v.Error != quotaHint {
			t.Fatalf("error = %q", v.Error)
		}
	})
	t.Run("quota sentinel", func(t *testing.T) {
		v := New(&fakeLLM{err: ErrQuota}).Analyze(context.Background(), unit, nil)
		if v.Error != quotaHint {
			t.Fatalf("error = %q", v.Error)
		}
	})
	t.Run("timeout", func(t *testing.T) {
		a := New(&fakeLLM{out: `{"detection_flag":"Y"}`, delay: time.Second}, WithTimeout(20*time.Millisecond))
		v := a.Analyze(context.Background(), unit, nil)
		if !v.Failed() || !strings.Contains(v.Error, "timed out") {
			t.Fatalf("verdict = %+v", v)
		}
	})
	t.Run("panic", func(t *testing.T) {
		var v Verdict
		testkit.MustNotPanic(t, func() { v = New(panicLLM{}).Analyze(context.Background(), unit, nil) })
		if !v.Failed() {
			t.Fatalf("verdict = %+v", v)
		}
	})
	t.Run("nil model", func(t *testing.T) {
		if v := New(nil).Analyze(context.Background(), unit, nil); !v.Failed() {
			t.Fatalf("verdict = %+v", v)
		}
	})
}

func TestTemplate_RenderAndLoad(t *testing.T) {
	tmpl, err := ParseTemplate("C={context} Q={question} literal={{context}}")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	got := tmpl.Render("ctx {question}", "q")
	if got != "C=ctx {question} Q=q literal={context}" {
		t.Fatalf("Render = %q", got)
	}

	if _, err := ParseTemplate("no variables"); err == nil {
		t.Fatalf("template without variables accepted")
	}

	dir := t.TempDir()
	p := filepath.Join(dir, "prompt.yaml")
	body := "_type: prompt\ninput_variables: [context, question]\ntemplate: |\n  참고: {context}\n  조항: {question}\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTemplate(p)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if out := loaded.Render("A", "B"); out != "참고: A\n조항: B\n" {
		t.Fatalf("loaded render = %q", out)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("_type: few_shot\ntemplate: '{context}{question}'\n"), 0o644)
	if _, err := LoadTemplate(bad); err == nil {
		t.Fatalf("wrong _type accepted")
	}
}

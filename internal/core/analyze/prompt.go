package analyze

import (
	"fmt"
	"os"
	"strings"

	perr "contractlens/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

const defaultPrompt = `당신은 계약서 검토 전문가입니다. 아래 참고 조항(Context)을 근거로 검토 대상 조항(Question)이 참고 조항에 위배되거나 계약 당사자 한쪽에 부당하게 불리한지 판단하세요.

# Context
{context}

# Question
{question}

# 출력 형식
설명 없이 아래 JSON 객체 하나만 출력하세요.
{{"detection_flag": "Y 또는 N", "reason": "판단 근거", "suggestion": "수정 제안 (위반이 아니면 빈 문자열)"}}
`

// Template renders the model prompt from retrieved context and the unit under review.
// "{{" and "}}" render as literal braces
type Template struct {
	text string
}

// promptFile is the YAML shape of a prompt override file
type promptFile struct {
	Type           string   `yaml:"_type"`
	Template       string   `yaml:"template"`
	InputVariables []string `yaml:"input_variables"`
}

// DefaultTemplate is the built-in review prompt
func DefaultTemplate() *Template { return &Template{text: defaultPrompt} }

// ParseTemplate validates a template body
func ParseTemplate(text string) (*Template, error) {
	if !strings.Contains(text, "{context}") || !strings.Contains(text, "{question}") {
		return nil, perr.InvalidArgf("prompt template must reference {context} and {question}")
	}
	return &Template{text: text}, nil
}

// LoadTemplate reads a YAML prompt file with a top level template key
func LoadTemplate(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	var pf promptFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "decode prompt file %s", path)
	}
	if pf.Type != "" && pf.Type != "prompt" {
		return nil, perr.InvalidArgf("prompt file %s has _type %q", path, pf.Type)
	}
	for _, v := range pf.InputVariables {
		if v != "context" && v != "question" {
			return nil, perr.InvalidArgf("prompt file %s declares unknown variable %q", path, v)
		}
	}
	return ParseTemplate(pf.Template)
}

// Render substitutes both variables in one pass so retrieved text is never re-expanded
func (t *Template) Render(context, question string) string {
	return strings.NewReplacer(
		"{{", "{",
		"}}", "}",
		"{context}", context,
		"{question}", question,
	).Replace(t.text)
}

package templates

import (
	"fmt"
	"regexp"
	"strings"
)

// ParsedQuestion is the outcome of mapping a natural-language question
// onto a template. Matched=false is a normal outcome, not an error;
// callers fall back to the LLM parser or report "not understood".
type ParsedQuestion struct {
	Matched    bool           `json:"matched"`
	TemplateID string         `json:"template_id,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Pattern binds one regex to a template. Capture groups map
// positionally onto Params; group values are coerced against the
// template's ParamSpec types before being returned.
type Pattern struct {
	Regexp     *regexp.Regexp
	TemplateID string
	Params     []string // parameter name per capture group
	Confidence float64  // hand-tuned, fixed per pattern
}

// Parser matches questions against an ordered pattern list. More
// specific patterns go first; the first match wins.
type Parser struct {
	registry *Registry
	patterns []Pattern
}

// NewParser builds a parser over the registry. Every pattern must
// reference a registered template and declared parameter names.
func NewParser(registry *Registry, patterns []Pattern) (*Parser, error) {
	for _, pat := range patterns {
		t, err := registry.Get(pat.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pat.Regexp, err)
		}
		if pat.Regexp.NumSubexp() != len(pat.Params) {
			return nil, fmt.Errorf("pattern %q: %d capture groups but %d parameter names",
				pat.Regexp, pat.Regexp.NumSubexp(), len(pat.Params))
		}
		for _, name := range pat.Params {
			if _, ok := t.Param(name); !ok {
				return nil, fmt.Errorf("pattern %q: template %s has no parameter %s",
					pat.Regexp, pat.TemplateID, name)
			}
		}
	}
	return &Parser{registry: registry, patterns: patterns}, nil
}

// Parse tries each pattern in order. No match is signaled through the
// Matched flag with confidence 0; Parse never returns an error for it.
func (p *Parser) Parse(question string) *ParsedQuestion {
	question = strings.TrimSpace(question)

	for _, pat := range p.patterns {
		m := pat.Regexp.FindStringSubmatch(question)
		if m == nil {
			continue
		}

		t, err := p.registry.Get(pat.TemplateID)
		if err != nil {
			continue
		}

		params := make(map[string]any, len(pat.Params))
		ok := true
		for i, name := range pat.Params {
			spec, _ := t.Param(name)
			captured := m[i+1]
			if isNumericType(spec.Type) {
				// "x^2 - 5x" captures the sign with surrounding
				// whitespace; collapse it before parsing. An empty
				// optional coefficient ("x^2") means 1.
				captured = strings.ReplaceAll(captured, " ", "")
				if captured == "" {
					captured = "1"
				}
			}
			value, err := coerceValue(spec, captured)
			if err != nil {
				ok = false
				break
			}
			params[name] = value
		}
		if !ok {
			continue
		}

		return &ParsedQuestion{
			Matched:    true,
			TemplateID: pat.TemplateID,
			Params:     params,
			Confidence: pat.Confidence,
		}
	}

	return &ParsedQuestion{Matched: false, Confidence: 0}
}

func isNumericType(t ParamType) bool {
	switch t {
	case TypeInteger, TypeFloat, TypeIntList, TypeFloatList:
		return true
	}
	return false
}

const num = `(-?\d+(?:\.\d+)?)`

// optNum allows the coefficient to be omitted ("x^2" means 1x^2).
const optNum = `(-?\d+(?:\.\d+)?)?`

// signedNum captures an explicit sign so "x^2 - 5x + 6" parses; the
// parser collapses the whitespace before coercion.
const signedNum = `([+-]\s*\d+(?:\.\d+)?)`

// DefaultPatterns covers the built-in template library. Order matters:
// the quadratic pattern must run before the linear one, since
// "x^2" questions would otherwise partially match linear forms.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Regexp:     regexp.MustCompile(`(?i)solve\s+` + optNum + `\s*x\s*(?:\^|\*\*)\s*2\s*` + signedNum + `\s*x\s*` + signedNum + `\s*=\s*0`),
			TemplateID: "quadratic_formula",
			Params:     []string{"a", "b", "c"},
			Confidence: 0.95,
		},
		{
			Regexp:     regexp.MustCompile(`(?i)solve\s+` + num + `\s*x\s*\+\s*` + num + `\s*=\s*` + num),
			TemplateID: "linear_equation_graph",
			Params:     []string{"a", "b", "c"},
			Confidence: 0.9,
		},
		{
			Regexp:     regexp.MustCompile(`(?i)(?:area of (?:a|the) circle|circle area).*?radius(?: of| is)?\s+` + num),
			TemplateID: "circle_area",
			Params:     []string{"radius"},
			Confidence: 0.85,
		},
		{
			Regexp:     regexp.MustCompile(`(?i)(?:hypotenuse|pythagorean).*?legs?\s+` + num + `\s+and\s+` + num),
			TemplateID: "pythagorean_theorem",
			Params:     []string{"leg_a", "leg_b"},
			Confidence: 0.85,
		},
		{
			Regexp:     regexp.MustCompile(`(?i)sine wave.*?amplitude\s+` + num + `.*?frequency\s+` + num),
			TemplateID: "sine_wave",
			Params:     []string{"amplitude", "frequency"},
			Confidence: 0.8,
		},
	}
}

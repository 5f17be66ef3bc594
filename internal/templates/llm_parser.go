package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
)

// parsedQuestionSchema constrains what the model may return. Anything
// outside this shape is rejected before it reaches the renderer.
const parsedQuestionSchema = `{
  "type": "object",
  "properties": {
    "matched": {"type": "boolean"},
    "template_id": {"type": "string"},
    "params": {"type": "object"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["matched", "confidence"],
  "additionalProperties": false
}`

// LLMParser maps questions onto templates with an LLM, as a fallback
// for questions the regex patterns cannot handle. Model output is
// validated against a JSON Schema and against the registry before it
// is trusted.
type LLMParser struct {
	generator providers.Generator
	registry  *Registry
	schema    *jsonschema.Schema
}

// NewLLMParser compiles the output schema and builds the parser.
func NewLLMParser(generator providers.Generator, registry *Registry) (*LLMParser, error) {
	if generator == nil {
		return nil, fmt.Errorf("llm parser: generator is required")
	}
	schema, err := jsonschema.CompileString("parsed_question.json", parsedQuestionSchema)
	if err != nil {
		return nil, fmt.Errorf("llm parser: %w", err)
	}
	return &LLMParser{
		generator: generator,
		registry:  registry,
		schema:    schema,
	}, nil
}

const llmParserSystem = `You map natural-language math questions onto animation templates.
Respond with a single JSON object and nothing else:
{"matched": bool, "template_id": string, "params": object, "confidence": number 0..1}
If no template fits, respond with {"matched": false, "confidence": 0}.`

// Parse asks the model to pick a template and extract parameters.
// Unlike the regex parser this can fail with an error (provider
// failure, unparseable output); a clean "no template fits" is still a
// normal Matched=false result.
func (p *LLMParser) Parse(ctx context.Context, question string) (*ParsedQuestion, error) {
	prompt := p.buildPrompt(question)

	result, err := p.generator.Generate(ctx, &providers.GenerateRequest{
		System: llmParserSystem,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("llm parse failed: %w", err)
	}

	raw := extractJSON(result.Text)

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("llm parse returned invalid JSON: %w", err)
	}
	if err := p.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("llm parse output failed schema validation: %w", err)
	}

	var parsed ParsedQuestion
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("llm parse returned invalid JSON: %w", err)
	}

	if !parsed.Matched {
		return &ParsedQuestion{Matched: false, Confidence: 0}, nil
	}
	if !p.registry.Has(parsed.TemplateID) {
		return nil, fmt.Errorf("llm parse chose unknown template %q", parsed.TemplateID)
	}
	return &parsed, nil
}

// buildPrompt lists every registered template with its parameters and
// example questions so the model picks from real options only.
func (p *LLMParser) buildPrompt(question string) string {
	var b strings.Builder
	b.WriteString("Available templates:\n")
	for _, t := range p.registry.List() {
		b.WriteString("- id: ")
		b.WriteString(t.ID)
		b.WriteString("\n  description: ")
		b.WriteString(t.Description)
		b.WriteString("\n  parameters:")
		for i := range t.Params {
			spec := &t.Params[i]
			if spec.IsDerived() {
				continue
			}
			b.WriteString(fmt.Sprintf(" %s(%s)", spec.Name, spec.Type))
		}
		if len(t.ExampleQuestions) > 0 {
			b.WriteString("\n  example: ")
			b.WriteString(t.ExampleQuestions[0])
		}
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

var jsonFenceMarkers = []string{"```json", "```"}

// extractJSON unwraps a fenced or prefixed JSON object from a model
// response.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	for _, marker := range jsonFenceMarkers {
		text = strings.TrimPrefix(text, marker)
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

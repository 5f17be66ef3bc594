package templates

import "regexp"

// Template is a reusable, parameterized Manim scene skeleton plus its
// parameter contract. Templates are read-only after registration and
// safe to share across goroutines.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description,omitempty"`

	// SceneName is the Scene subclass the rendered source defines.
	SceneName string `yaml:"scene_name" json:"scene_name"`

	// Params are declared in order; derivation formulas may reference
	// only parameters declared earlier in this list.
	Params []ParamSpec `yaml:"params" json:"params"`

	// Source is the scene skeleton with {name} placeholders.
	Source string `yaml:"source" json:"-"`

	ExampleQuestions []string `yaml:"example_questions" json:"example_questions,omitempty"`
	Tags             []string `yaml:"tags" json:"tags,omitempty"`
}

// Param returns the spec for the named parameter.
func (t *Template) Param(name string) (*ParamSpec, bool) {
	for i := range t.Params {
		if t.Params[i].Name == name {
			return &t.Params[i], true
		}
	}
	return nil, false
}

var placeholderRe = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// Placeholders returns the distinct placeholder names used in Source,
// in order of first appearance.
func (t *Template) Placeholders() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Source, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

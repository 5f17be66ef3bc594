package templates

import (
	"fmt"
	"sort"
)

// Registry is the process-wide lookup table of templates. It is built
// once, validated eagerly, and read-only afterwards, so concurrent
// readers need no locking. It is passed explicitly to everything that
// needs template lookup.
type Registry struct {
	byID       map[string]*Template
	byCategory map[string][]string
	ids        []string
	formulas   map[string]map[string]*Formula // template id -> param -> compiled formula
}

// NewRegistry validates and registers the given templates. Any
// contract violation (duplicate id, unknown placeholder, derived
// parameter marked required, formula referencing a later parameter,
// placeholder or formula reference that could go unresolved) fails
// registration rather than surfacing at render time.
func NewRegistry(tmpls ...*Template) (*Registry, error) {
	r := &Registry{
		byID:       make(map[string]*Template),
		byCategory: make(map[string][]string),
		formulas:   make(map[string]map[string]*Formula),
	}

	for _, t := range tmpls {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t *Template) error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if _, exists := r.byID[t.ID]; exists {
		return fmt.Errorf("duplicate template id: %s", t.ID)
	}
	if t.SceneName == "" {
		return fmt.Errorf("template %s: scene_name is required", t.ID)
	}

	specs := make(map[string]*ParamSpec)
	compiled := make(map[string]*Formula)

	// declared tracks what a derivation formula may reference at each
	// point in the list: everything declared strictly before it. This
	// ordering check is what makes cycles impossible.
	declared := make(map[string]bool)

	for i := range t.Params {
		p := &t.Params[i]
		if p.Name == "" {
			return fmt.Errorf("template %s: parameter %d has no name", t.ID, i)
		}
		if _, dup := specs[p.Name]; dup {
			return fmt.Errorf("template %s: duplicate parameter %s", t.ID, p.Name)
		}
		specs[p.Name] = p

		if !validTypes[p.Type] {
			return fmt.Errorf("template %s: parameter %s has unknown type %q", t.ID, p.Name, p.Type)
		}
		if p.Type == TypeChoice && len(p.Choices) == 0 {
			return fmt.Errorf("template %s: choice parameter %s declares no choices", t.ID, p.Name)
		}

		if p.Default != nil {
			if p.IsDerived() {
				return fmt.Errorf("template %s: derived parameter %s must not declare a default", t.ID, p.Name)
			}
			coerced, err := coerceValue(p, p.Default)
			if err != nil {
				return fmt.Errorf("template %s: parameter %s: bad default: %v", t.ID, p.Name, err)
			}
			if v := checkConstraints(p, coerced); len(v) > 0 {
				return fmt.Errorf("template %s: parameter %s: default %v", t.ID, p.Name, v[0].Message)
			}
			// Store the coerced form so render can use it directly.
			p.Default = coerced
		}

		if p.IsDerived() {
			if p.Required {
				return fmt.Errorf("template %s: derived parameter %s must not be required", t.ID, p.Name)
			}
			refs, err := FormulaIdentifiers(p.DerivedFrom)
			if err != nil {
				return fmt.Errorf("template %s: parameter %s: %w", t.ID, p.Name, err)
			}
			for _, ref := range refs {
				if !declared[ref] {
					return fmt.Errorf("template %s: parameter %s references %q, which is not declared before it", t.ID, p.Name, ref)
				}
				if !specs[ref].AlwaysResolves() {
					return fmt.Errorf("template %s: parameter %s references %q, which is optional with no default and may be absent", t.ID, p.Name, ref)
				}
			}
			f, err := CompileFormula(p.DerivedFrom)
			if err != nil {
				return fmt.Errorf("template %s: parameter %s: %w", t.ID, p.Name, err)
			}
			compiled[p.Name] = f
		}

		declared[p.Name] = true
	}

	// Every placeholder must be guaranteed a value, so rendered source
	// can never carry an unsubstituted {name}.
	for _, placeholder := range t.Placeholders() {
		p, ok := specs[placeholder]
		if !ok {
			return fmt.Errorf("template %s: source placeholder {%s} has no matching parameter", t.ID, placeholder)
		}
		if !p.AlwaysResolves() {
			return fmt.Errorf("template %s: source placeholder {%s} is optional with no default and may go unsubstituted", t.ID, placeholder)
		}
	}

	r.byID[t.ID] = t
	r.ids = append(r.ids, t.ID)
	if t.Category != "" {
		r.byCategory[t.Category] = append(r.byCategory[t.Category], t.ID)
	}
	r.formulas[t.ID] = compiled
	return nil
}

// Get returns the template for id.
func (r *Registry) Get(id string) (*Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, &NotFoundError{TemplateID: id}
	}
	return t, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns all templates in registration order.
func (r *Registry) List() []*Template {
	out := make([]*Template, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns all registered template ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Categories returns all categories sorted alphabetically.
func (r *Registry) Categories() []string {
	cats := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ByCategory returns the templates registered under a category.
func (r *Registry) ByCategory(category string) []*Template {
	var out []*Template
	for _, id := range r.byCategory[category] {
		out = append(out, r.byID[id])
	}
	return out
}

// formula returns the compiled derivation formula for a parameter.
func (r *Registry) formula(templateID, param string) *Formula {
	return r.formulas[templateID][param]
}

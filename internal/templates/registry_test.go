package templates

import (
	"strings"
	"testing"
)

func TestRegistryRejectsDuplicateID(t *testing.T) {
	if _, err := NewRegistry(linearTemplate(), linearTemplate()); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestRegistryRejectsUnknownPlaceholder(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat, Required: true},
		},
		Source: "a = {a}\nb = {mystery}\n",
	}
	_, err := NewRegistry(tmpl)
	if err == nil {
		t.Fatal("expected error for unknown placeholder")
	}
	if !strings.Contains(err.Error(), "mystery") {
		t.Errorf("error should name the placeholder: %v", err)
	}
}

func TestRegistryRejectsDerivedRequired(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat, Required: true},
			{Name: "b", Type: TypeFloat, Required: true, DerivedFrom: "a * 2"},
		},
		Source: "{a} {b}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("derived parameters must not be required")
	}
}

func TestRegistryRejectsUnknownType(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: "decimal", Required: true},
		},
		Source: "{a}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestRegistryRejectsChoiceWithoutChoices(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "color", Type: TypeChoice, Required: true},
		},
		Source: "{color}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("expected error for empty choice set")
	}
}

func TestRegistryRejectsOptionalPlaceholderWithoutDefault(t *testing.T) {
	// An optional parameter with no default could be omitted by the
	// caller, leaving its placeholder behind in executable source.
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat, Required: true},
			{Name: "d", Type: TypeFloat},
		},
		Source: "a = {a}\nd = {d}\n",
	}
	_, err := NewRegistry(tmpl)
	if err == nil {
		t.Fatal("expected error for optional placeholder without default")
	}
	if !strings.Contains(err.Error(), "{d}") {
		t.Errorf("error should name the placeholder: %v", err)
	}
}

func TestRegistryRejectsFormulaOverOptionalWithoutDefault(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat},
			{Name: "b", Type: TypeFloat, DerivedFrom: "a * 2"},
		},
		Source: "{b}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("formula over an omittable parameter must fail registration")
	}
}

func TestRegistryRejectsBadDefault(t *testing.T) {
	cases := []struct {
		name string
		p    ParamSpec
	}{
		{"wrong type", ParamSpec{Name: "d", Type: TypeFloat, Default: "not a number"}},
		{"out of range", ParamSpec{Name: "d", Type: TypeFloat, Min: floatPtr(0), Default: -1}},
		{"on derived", ParamSpec{Name: "d", Type: TypeFloat, DerivedFrom: "1 + 1", Default: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl := &Template{
				ID:        "bad",
				SceneName: "S",
				Params:    []ParamSpec{tc.p},
				Source:    "{d}",
			}
			if _, err := NewRegistry(tmpl); err == nil {
				t.Fatal("expected registration error")
			}
		})
	}
}

func TestRegistryRejectsBadFormula(t *testing.T) {
	tmpl := &Template{
		ID:        "bad",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat, Required: true},
			{Name: "b", Type: TypeFloat, DerivedFrom: "a +* 2"},
		},
		Source: "{a}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("expected error for malformed formula")
	}
}

func TestRegistryLookups(t *testing.T) {
	algebra := linearTemplate()
	geometry := &Template{
		ID:        "square",
		Category:  "geometry",
		SceneName: "SquareScene",
		Params: []ParamSpec{
			{Name: "side", Type: TypeFloat, Required: true},
		},
		Source: "{side}",
	}
	r := mustRegistry(t, algebra, geometry)

	if !r.Has("linear") || !r.Has("square") {
		t.Error("expected both templates registered")
	}
	if len(r.List()) != 2 {
		t.Errorf("expected 2 templates, got %d", len(r.List()))
	}
	if got := r.Categories(); len(got) != 2 || got[0] != "algebra" || got[1] != "geometry" {
		t.Errorf("unexpected categories: %v", got)
	}
	if got := r.ByCategory("geometry"); len(got) != 1 || got[0].ID != "square" {
		t.Errorf("unexpected category lookup: %v", got)
	}
}

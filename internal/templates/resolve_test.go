package templates

import (
	"errors"
	"strings"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

// linearTemplate mirrors the "solve ax + b = c" shape with a derived
// solution parameter.
func linearTemplate() *Template {
	return &Template{
		ID:        "linear",
		Name:      "Linear",
		Category:  "algebra",
		SceneName: "LinearScene",
		Params: []ParamSpec{
			{Name: "a", Type: TypeFloat, Required: true},
			{Name: "b", Type: TypeFloat, Required: true},
			{Name: "c", Type: TypeFloat, Required: true},
			{Name: "solution", Type: TypeFloat, DerivedFrom: "(c - b) / a"},
		},
		Source: "a = {a}\nb = {b}\nc = {c}\nx = {solution}\n",
	}
}

func mustRegistry(t *testing.T, tmpls ...*Template) *Registry {
	t.Helper()
	r, err := NewRegistry(tmpls...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r
}

func TestRenderDerivedSolution(t *testing.T) {
	r := mustRegistry(t, linearTemplate())

	source, err := r.Render("linear", map[string]any{"a": 3, "b": 5, "c": 14})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(source, "x = 3\n") {
		t.Errorf("expected solution 3, got:\n%s", source)
	}
	if !strings.Contains(source, "a = 3\n") || !strings.Contains(source, "b = 5\n") {
		t.Errorf("inputs not substituted:\n%s", source)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := mustRegistry(t, linearTemplate())

	_, err := r.Render("nope", map[string]any{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.TemplateID != "nope" {
		t.Errorf("unexpected template id in error: %q", nf.TemplateID)
	}
}

func TestRenderAggregatesViolations(t *testing.T) {
	// Three required parameters: two missing, one out of range. The
	// failure must list exactly three violations, not stop at the
	// first.
	tmpl := &Template{
		ID:        "bounded",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "x", Type: TypeFloat, Required: true, Min: floatPtr(0), Max: floatPtr(10)},
			{Name: "y", Type: TypeFloat, Required: true},
			{Name: "z", Type: TypeFloat, Required: true},
		},
		Source: "{x} {y} {z}",
	}
	r := mustRegistry(t, tmpl)

	_, err := r.Render("bounded", map[string]any{"x": 99})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 3 {
		t.Fatalf("expected exactly 3 violations, got %d: %v", len(ve.Violations), ve.Violations)
	}

	kinds := map[string]int{}
	for _, v := range ve.Violations {
		kinds[v.Kind]++
	}
	if kinds["missing"] != 2 || kinds["constraint"] != 1 {
		t.Errorf("unexpected violation kinds: %v", ve.Violations)
	}
}

func TestRenderDerivedChain(t *testing.T) {
	// A later derived value may depend on an earlier derived value.
	tmpl := &Template{
		ID:        "chain",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "base", Type: TypeFloat, Required: true},
			{Name: "double", Type: TypeFloat, DerivedFrom: "base * 2"},
			{Name: "quad", Type: TypeFloat, DerivedFrom: "double * 2"},
		},
		Source: "{base} {double} {quad}",
	}
	r := mustRegistry(t, tmpl)

	source, err := r.Render("chain", map[string]any{"base": 1.5})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if source != "1.5 3 6" {
		t.Errorf("unexpected substitution: %q", source)
	}
}

func TestDerivedOrderingIsEnforced(t *testing.T) {
	// Swapping declaration order so quad precedes double must fail at
	// registration: formulas may only look backwards.
	tmpl := &Template{
		ID:        "backwards",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "base", Type: TypeFloat, Required: true},
			{Name: "quad", Type: TypeFloat, DerivedFrom: "double * 2"},
			{Name: "double", Type: TypeFloat, DerivedFrom: "base * 2"},
		},
		Source: "{base}",
	}
	if _, err := NewRegistry(tmpl); err == nil {
		t.Fatal("forward reference must fail registration")
	} else if !strings.Contains(err.Error(), "double") {
		t.Errorf("error should name the unresolved reference: %v", err)
	}
}

func TestRenderDefaultFillsOmittedParam(t *testing.T) {
	tmpl := &Template{
		ID:        "shifted",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "amplitude", Type: TypeFloat, Required: true},
			{Name: "phase", Type: TypeFloat, Default: 0.5},
			{Name: "peak", Type: TypeFloat, DerivedFrom: "amplitude + phase"},
		},
		Source: "amp = {amplitude}\nphase = {phase}\npeak = {peak}\n",
	}
	r := mustRegistry(t, tmpl)

	t.Run("omitted", func(t *testing.T) {
		source, err := r.Render("shifted", map[string]any{"amplitude": 2})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(source, "phase = 0.5\n") || !strings.Contains(source, "peak = 2.5\n") {
			t.Errorf("default not applied:\n%s", source)
		}
		if strings.Contains(source, "{") {
			t.Errorf("unsubstituted placeholder in rendered source:\n%s", source)
		}
	})

	t.Run("supplied overrides default", func(t *testing.T) {
		source, err := r.Render("shifted", map[string]any{"amplitude": 2, "phase": 1})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !strings.Contains(source, "phase = 1\n") || !strings.Contains(source, "peak = 3\n") {
			t.Errorf("supplied value not used:\n%s", source)
		}
	})
}

func TestCoercionSemantics(t *testing.T) {
	tmpl := &Template{
		ID:        "coerce",
		SceneName: "S",
		Params: []ParamSpec{
			{Name: "count", Type: TypeInteger, Required: true},
			{Name: "scale", Type: TypeFloat, Required: true},
			{Name: "show", Type: TypeBoolean, Required: true},
			{Name: "color", Type: TypeChoice, Required: true, Choices: []string{"BLUE", "RED"}},
			{Name: "points", Type: TypeIntList, Required: true, MinLen: intPtr(2)},
		},
		Source: "{count} {scale} {show} {color} {points}",
	}
	r := mustRegistry(t, tmpl)

	t.Run("valid with widening", func(t *testing.T) {
		source, err := r.Render("coerce", map[string]any{
			"count":  "4",
			"scale":  7, // integer widens to float
			"show":   true,
			"color":  "BLUE",
			"points": []any{1, 2, 3},
		})
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if source != "4 7 True BLUE [1, 2, 3]" {
			t.Errorf("unexpected substitution: %q", source)
		}
	})

	t.Run("fractional integer rejected", func(t *testing.T) {
		_, err := r.Render("coerce", map[string]any{
			"count":  4.5,
			"scale":  1,
			"show":   true,
			"color":  "BLUE",
			"points": []any{1, 2},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(ve.Violations) != 1 || ve.Violations[0].Param != "count" {
			t.Errorf("unexpected violations: %v", ve.Violations)
		}
	})

	t.Run("list rejected as a whole on bad element", func(t *testing.T) {
		_, err := r.Render("coerce", map[string]any{
			"count":  1,
			"scale":  1,
			"show":   true,
			"color":  "BLUE",
			"points": []any{1, "two", 3},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Violations[0].Param != "points" || ve.Violations[0].Kind != "type" {
			t.Errorf("unexpected violations: %v", ve.Violations)
		}
	})

	t.Run("choice outside set", func(t *testing.T) {
		_, err := r.Render("coerce", map[string]any{
			"count":  1,
			"scale":  1,
			"show":   true,
			"color":  "GREEN",
			"points": []any{1, 2},
		})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Violations[0].Kind != "constraint" {
			t.Errorf("unexpected violations: %v", ve.Violations)
		}
	})
}

func TestRenderIdempotent(t *testing.T) {
	r := mustRegistry(t, linearTemplate())
	raw := map[string]any{"a": 2, "b": 1, "c": 9}

	first, err := r.Render("linear", raw)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := r.Render("linear", raw)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if first != second {
		t.Error("identical inputs must produce byte-identical source")
	}
}

package templates

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Render resolves raw parameters against the template's contract and
// substitutes them into the source skeleton. It fails with a
// NotFoundError for an unregistered id, or a ValidationError carrying
// every violation found; it never stops at the first problem.
func (r *Registry) Render(templateID string, raw map[string]any) (string, error) {
	t, err := r.Get(templateID)
	if err != nil {
		return "", err
	}

	var violations []Violation
	resolved := make(map[string]any)

	for i := range t.Params {
		p := &t.Params[i]
		if p.IsDerived() {
			continue
		}

		value, present := raw[p.Name]
		if !present {
			if p.Default != nil {
				// Defaults are coerced and constraint-checked at
				// registration.
				resolved[p.Name] = p.Default
			} else if p.Required {
				violations = append(violations, Violation{
					Param:   p.Name,
					Kind:    "missing",
					Message: "missing required parameter",
				})
			}
			continue
		}

		coerced, err := coerceValue(p, value)
		if err != nil {
			violations = append(violations, Violation{
				Param:   p.Name,
				Kind:    "type",
				Message: err.Error(),
			})
			continue
		}

		violations = append(violations, checkConstraints(p, coerced)...)
		resolved[p.Name] = coerced
	}

	if len(violations) > 0 {
		return "", &ValidationError{TemplateID: templateID, Violations: violations}
	}

	// Derived parameters are computed in declaration order, so a later
	// formula may use an earlier derived value.
	for i := range t.Params {
		p := &t.Params[i]
		if !p.IsDerived() {
			continue
		}
		f := r.formula(templateID, p.Name)
		out, err := f.Eval(resolved)
		if err != nil {
			return "", fmt.Errorf("template %s: deriving %s: %w", templateID, p.Name, err)
		}
		coerced, err := coerceValue(p, out)
		if err != nil {
			return "", fmt.Errorf("template %s: derived %s: %w", templateID, p.Name, err)
		}
		resolved[p.Name] = coerced
	}

	return substitute(t.Source, resolved), nil
}

// substitute replaces every {name} placeholder with the Python literal
// form of its resolved value. Only validated values reach this point.
func substitute(source string, resolved map[string]any) string {
	// Longer names first so {ab} is never clobbered by {a}.
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		source = strings.ReplaceAll(source, "{"+name+"}", pythonLiteral(resolved[name]))
	}
	return source
}

// pythonLiteral formats a resolved value the way the generated Python
// source expects it.
func pythonLiteral(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	case []int64:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = strconv.FormatInt(e, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []float64:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = strconv.FormatFloat(e, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// coerceValue converts a raw value to the parameter's declared type.
// Integers reject fractional input; floats accept integers and widen;
// lists require every element to coerce.
func coerceValue(p *ParamSpec, value any) (any, error) {
	switch p.Type {
	case TypeInteger:
		return coerceInt(value)
	case TypeFloat:
		return coerceFloat(value)
	case TypeString, TypeChoice:
		return coerceString(value)
	case TypeBoolean:
		return coerceBool(value)
	case TypeIntList:
		return coerceList(value, coerceInt)
	case TypeFloatList:
		return coerceList(value, coerceFloat)
	default:
		return nil, fmt.Errorf("unknown type %q", p.Type)
	}
}

func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int64(v), nil
	case float32:
		return coerceInt(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return coerceInt(f)
		}
		return 0, fmt.Errorf("expected integer, got %q", v)
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}

func coerceFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func coerceString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return false, fmt.Errorf("expected boolean, got %q", v)
	default:
		return false, fmt.Errorf("expected boolean, got %T", value)
	}
}

// coerceList coerces every element; the whole list is rejected when
// any element fails.
func coerceList[T any](value any, elem func(any) (T, error)) ([]T, error) {
	items, ok := value.([]any)
	if !ok {
		switch typed := value.(type) {
		case []int:
			items = make([]any, len(typed))
			for i, e := range typed {
				items[i] = e
			}
		case []float64:
			items = make([]any, len(typed))
			for i, e := range typed {
				items[i] = e
			}
		default:
			return nil, fmt.Errorf("expected list, got %T", value)
		}
	}

	out := make([]T, len(items))
	for i, item := range items {
		coerced, err := elem(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %v", i, err)
		}
		out[i] = coerced
	}
	return out, nil
}

// checkConstraints applies min/max, choices, and list length bounds.
func checkConstraints(p *ParamSpec, value any) []Violation {
	var violations []Violation

	numeric := func(f float64) {
		if p.Min != nil && f < *p.Min {
			violations = append(violations, Violation{
				Param:   p.Name,
				Kind:    "constraint",
				Message: fmt.Sprintf("value %v is below minimum %v", f, *p.Min),
			})
		}
		if p.Max != nil && f > *p.Max {
			violations = append(violations, Violation{
				Param:   p.Name,
				Kind:    "constraint",
				Message: fmt.Sprintf("value %v is above maximum %v", f, *p.Max),
			})
		}
	}

	checkLen := func(n int) {
		if p.MinLen != nil && n < *p.MinLen {
			violations = append(violations, Violation{
				Param:   p.Name,
				Kind:    "constraint",
				Message: fmt.Sprintf("list has %d elements, minimum is %d", n, *p.MinLen),
			})
		}
		if p.MaxLen != nil && n > *p.MaxLen {
			violations = append(violations, Violation{
				Param:   p.Name,
				Kind:    "constraint",
				Message: fmt.Sprintf("list has %d elements, maximum is %d", n, *p.MaxLen),
			})
		}
	}

	switch v := value.(type) {
	case int64:
		numeric(float64(v))
	case float64:
		numeric(v)
	case string:
		if p.Type == TypeChoice {
			found := false
			for _, c := range p.Choices {
				if c == v {
					found = true
					break
				}
			}
			if !found {
				violations = append(violations, Violation{
					Param:   p.Name,
					Kind:    "constraint",
					Message: fmt.Sprintf("%q is not one of %v", v, p.Choices),
				})
			}
		}
	case []int64:
		checkLen(len(v))
		for _, e := range v {
			numeric(float64(e))
		}
	case []float64:
		checkLen(len(v))
		for _, e := range v {
			numeric(e)
		}
	}

	return violations
}

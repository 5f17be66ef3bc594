// Package templates implements the deterministic generation path: a
// registry of pre-authored Manim scene templates, parameter validation
// and derivation, and question parsers that map natural language onto
// template parameters.
package templates

import (
	"fmt"
	"strings"
)

// ParamType is the closed set of parameter types a template may declare.
type ParamType string

const (
	TypeInteger   ParamType = "integer"
	TypeFloat     ParamType = "float"
	TypeString    ParamType = "string"
	TypeBoolean   ParamType = "boolean"
	TypeIntList   ParamType = "integer_list"
	TypeFloatList ParamType = "float_list"
	TypeChoice    ParamType = "choice"
)

// validTypes guards template registration against typos in YAML.
var validTypes = map[ParamType]bool{
	TypeInteger:   true,
	TypeFloat:     true,
	TypeString:    true,
	TypeBoolean:   true,
	TypeIntList:   true,
	TypeFloatList: true,
	TypeChoice:    true,
}

// ParamSpec declares one template parameter and its constraints.
// A parameter with DerivedFrom is always computed, never supplied by
// the caller, and must not be marked required.
type ParamSpec struct {
	Name        string    `yaml:"name" json:"name"`
	Type        ParamType `yaml:"type" json:"type"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Required    bool      `yaml:"required" json:"required"`

	Min     *float64 `yaml:"min" json:"min,omitempty"`
	Max     *float64 `yaml:"max" json:"max,omitempty"`
	Choices []string `yaml:"choices" json:"choices,omitempty"`
	MinLen  *int     `yaml:"min_len" json:"min_len,omitempty"`
	MaxLen  *int     `yaml:"max_len" json:"max_len,omitempty"`

	// Default fills an optional parameter that the caller omits. A
	// parameter used by the source or by a derivation formula must be
	// required, derived, or defaulted, so every placeholder resolves.
	Default any `yaml:"default" json:"default,omitempty"`

	DerivedFrom string `yaml:"derived_from" json:"derived_from,omitempty"`
}

// IsDerived reports whether this parameter is computed from a formula.
func (p *ParamSpec) IsDerived() bool {
	return p.DerivedFrom != ""
}

// AlwaysResolves reports whether the parameter is guaranteed a value
// at render time: supplied (required), computed (derived), or
// backfilled (defaulted).
func (p *ParamSpec) AlwaysResolves() bool {
	return p.Required || p.IsDerived() || p.Default != nil
}

// Violation is one specific reason a parameter mapping failed.
type Violation struct {
	Param   string `json:"param"`
	Kind    string `json:"kind"` // "missing", "type", "constraint"
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Param, v.Message)
}

// ValidationError aggregates every violation found during parameter
// resolution. Resolution never stops at the first problem, so the
// caller gets the complete correction list at once.
type ValidationError struct {
	TemplateID string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("template %s: %d parameter violation(s): %s",
		e.TemplateID, len(e.Violations), strings.Join(msgs, "; "))
}

// NotFoundError is returned when a template id is not registered.
type NotFoundError struct {
	TemplateID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.TemplateID)
}

// Package engine orchestrates the generate-validate-render loop that
// turns a math topic into a rendered Manim video.
package engine

import (
	"time"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
)

// State is a phase of the generation loop.
type State string

const (
	StatePrompting  State = "prompting"
	StateValidating State = "validating"
	StateRendering  State = "rendering"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateAborted    State = "aborted"
)

// Request describes one generation run. It is immutable input; the
// loop never modifies it.
type Request struct {
	ID           string // Result ID; generated when empty
	Topic        string // Free-text math topic (required)
	Requirements string // Optional extra requirements
	Audience     string // Audience level tag ("middle school", ...)
	Style        string // Style preferences

	Model      string         // LLM model override (empty = provider default)
	Quality    render.Quality // Render preset
	OutputPath string         // Where the final video goes
}

// Attempt records one full prompt-generate-validate-render cycle.
type Attempt struct {
	Number            int           `json:"number"`
	Source            string        `json:"source,omitempty"`
	ProviderError     string        `json:"provider_error,omitempty"`
	ValidationReasons []string      `json:"validation_reasons,omitempty"`
	RenderError       string        `json:"render_error,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// Result is the terminal outcome of a run. Failure is reported here,
// never raised; only fatal configuration and credential problems
// surface as Go errors.
type Result struct {
	ID           string        `json:"id"`
	Topic        string        `json:"topic"`
	Success      bool          `json:"success"`
	State        State         `json:"state"`
	Source       string        `json:"source,omitempty"`
	SceneName    string        `json:"scene_name,omitempty"`
	ArtifactPath string        `json:"artifact_path,omitempty"`
	Attempts     []Attempt     `json:"attempts"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// AttemptCount returns how many attempts were consumed.
func (r *Result) AttemptCount() int {
	return len(r.Attempts)
}

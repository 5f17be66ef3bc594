package engine

import (
	"regexp"
	"strings"
)

// systemPrompt frames every generation request. The model must return
// a single self-contained scene; everything else the validator rejects.
const systemPrompt = `You are an expert Manim developer creating educational math animations.

Rules:
- Respond with a single complete Python file using Manim Community Edition.
- Start with "from manim import *".
- Define exactly one class extending Scene with a construct(self) method.
- Keep every animation element inside the visible frame.
- Do not use input(), eval(), exec(), file or network access.
- Respond with code only. No explanations outside the code.`

// BuildPrompt assembles the user prompt for one attempt. errorContext
// is the most recent failure only and is included verbatim so the
// model sees exactly what the validator or renderer reported.
func BuildPrompt(req *Request, errorContext string) string {
	var b strings.Builder

	b.WriteString("Create a Manim animation that explains: ")
	b.WriteString(req.Topic)
	b.WriteString("\n")

	if req.Audience != "" {
		b.WriteString("\nTarget audience: ")
		b.WriteString(req.Audience)
		b.WriteString("\n")
	}
	if req.Requirements != "" {
		b.WriteString("\nAdditional requirements:\n")
		b.WriteString(req.Requirements)
		b.WriteString("\n")
	}
	if req.Style != "" {
		b.WriteString("\nStyle preferences:\n")
		b.WriteString(req.Style)
		b.WriteString("\n")
	}

	if errorContext != "" {
		b.WriteString("\nYour previous attempt failed. Fix the following and return the complete corrected file:\n")
		b.WriteString(errorContext)
		b.WriteString("\n")
	}

	return b.String()
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n(.*?)```")

// ExtractSource strips a markdown code fence from a model response.
// Models wrap code in fences despite instructions not to.
func ExtractSource(response string) string {
	if m := codeFenceRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

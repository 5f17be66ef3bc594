// Package validate statically checks generated Manim source before it
// is handed to the renderer. It never executes the code it inspects.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// sceneClassRe matches a class declaration extending Scene or one of its
// common subclasses (MovingCameraScene, ThreeDScene, ZoomedScene).
var sceneClassRe = regexp.MustCompile(`(?m)^class\s+(\w+)\s*\(\s*(?:\w+\.)?(?:MovingCamera|ThreeD|Zoomed)?Scene\s*\)\s*:`)

var constructRe = regexp.MustCompile(`(?m)^\s+def\s+construct\s*\(\s*self\s*\)\s*:`)

var manimImportRe = regexp.MustCompile(`(?m)^(?:from\s+manim(?:\.\w+)*\s+import\s+|import\s+manim\b)`)

// deniedCalls are constructs the renderer sandbox refuses. Each entry pairs
// a pattern with the reason reported to the caller.
var deniedCalls = []struct {
	pattern *regexp.Regexp
	reason  string
}{
	{regexp.MustCompile(`\binput\s*\(`), "calls input(), which blocks rendering"},
	{regexp.MustCompile(`\beval\s*\(`), "calls eval(), which is not allowed"},
	{regexp.MustCompile(`\bexec\s*\(`), "calls exec(), which is not allowed"},
	{regexp.MustCompile(`__import__`), "uses __import__, which is not allowed"},
	{regexp.MustCompile(`\bos\.system\s*\(`), "calls os.system(), which is not allowed"},
	{regexp.MustCompile(`\bsubprocess\b`), "uses the subprocess module, which is not allowed"},
	{regexp.MustCompile(`\bopen\s*\(\s*['"]/(?:etc|proc|sys)/`), "opens a system path, which is not allowed"},
}

// Result carries the outcome of a validation pass.
type Result struct {
	Valid   bool
	Reasons []string
}

// ErrorText joins all reasons into a single message suitable for
// feeding back into a regeneration prompt.
func (r *Result) ErrorText() string {
	return strings.Join(r.Reasons, "; ")
}

// Validate runs every check against the source and accumulates all
// failures. It never stops at the first problem so a regeneration
// prompt can report everything that is wrong at once.
func Validate(source string) *Result {
	var reasons []string

	if strings.TrimSpace(source) == "" {
		return &Result{Valid: false, Reasons: []string{"source is empty"}}
	}

	reasons = append(reasons, checkDelimiters(source)...)

	if !manimImportRe.MatchString(source) {
		reasons = append(reasons, "missing manim import (expected `from manim import ...`)")
	}
	if !sceneClassRe.MatchString(source) {
		reasons = append(reasons, "no class extending Scene found")
	} else if !constructRe.MatchString(source) {
		reasons = append(reasons, "scene class has no construct(self) method")
	}

	for _, denied := range deniedCalls {
		if matchesOutsideStrings(source, denied.pattern) {
			reasons = append(reasons, denied.reason)
		}
	}

	return &Result{Valid: len(reasons) == 0, Reasons: reasons}
}

// SceneName extracts the first Scene subclass name from the source.
// Returns the empty string when no scene class is present.
func SceneName(source string) string {
	m := sceneClassRe.FindStringSubmatch(source)
	if m == nil {
		return ""
	}
	return m[1]
}

// checkDelimiters verifies that (), [], {} are balanced outside of
// string literals and comments. Python itself would reject unbalanced
// delimiters, but catching them here saves a render attempt.
func checkDelimiters(source string) []string {
	var reasons []string
	counts := map[rune]int{'(': 0, '[': 0, '{': 0}
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}

	for _, line := range strings.Split(source, "\n") {
		for _, ch := range stripStringsAndComments(line) {
			switch ch {
			case '(', '[', '{':
				counts[ch]++
			case ')', ']', '}':
				counts[pairs[ch]]--
			}
		}
	}

	names := map[rune]string{'(': "parentheses", '[': "brackets", '{': "braces"}
	for _, open := range []rune{'(', '[', '{'} {
		if counts[open] != 0 {
			reasons = append(reasons, fmt.Sprintf("unbalanced %s", names[open]))
		}
	}
	return reasons
}

// matchesOutsideStrings reports whether the pattern matches the source
// after string literals and comments are stripped line by line. A
// narration string mentioning "eval" must not trip the denylist.
func matchesOutsideStrings(source string, pattern *regexp.Regexp) bool {
	for _, line := range strings.Split(source, "\n") {
		if pattern.MatchString(stripStringsAndComments(line)) {
			return true
		}
	}
	return false
}

// stripStringsAndComments blanks out single-line string literal
// contents and trailing comments. Triple-quoted strings spanning lines
// are not tracked; a delimiter imbalance inside them is rare enough
// that the renderer catches it on the first attempt.
func stripStringsAndComments(line string) string {
	var out []rune
	var quote rune
	escaped := false

	for _, ch := range line {
		switch {
		case quote != 0:
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == quote {
				quote = 0
			}
			out = append(out, ' ')
		case ch == '\'' || ch == '"':
			quote = ch
			out = append(out, ' ')
		case ch == '#':
			return string(out)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

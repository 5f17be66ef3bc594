package validate

import (
	"strings"
	"testing"
)

const goodScene = `from manim import *


class QuadraticFormula(Scene):
    def construct(self):
        title = Text("The Quadratic Formula")
        self.play(Write(title))
        self.wait(2)
`

func TestValidateGoodScene(t *testing.T) {
	result := Validate(goodScene)
	if !result.Valid {
		t.Fatalf("expected valid, got reasons: %v", result.Reasons)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("valid source should have no reasons, got %v", result.Reasons)
	}
}

func TestValidateEmptySource(t *testing.T) {
	result := Validate("   \n  ")
	if result.Valid {
		t.Fatal("empty source should be invalid")
	}
	if len(result.Reasons) != 1 || result.Reasons[0] != "source is empty" {
		t.Errorf("unexpected reasons: %v", result.Reasons)
	}
}

func TestValidateAccumulatesAllReasons(t *testing.T) {
	// Missing import, missing scene class, unbalanced parens, and a
	// denied call, all in one blob.
	source := `
def helper(:
    eval("1+1")
`
	result := Validate(source)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if len(result.Reasons) < 3 {
		t.Errorf("expected every failure reported, got %v", result.Reasons)
	}

	joined := result.ErrorText()
	for _, want := range []string{"manim import", "Scene", "eval", "parentheses"} {
		if !strings.Contains(joined, want) {
			t.Errorf("reasons missing %q: %v", want, result.Reasons)
		}
	}
}

func TestValidateMissingConstruct(t *testing.T) {
	source := `from manim import *

class Empty(Scene):
    pass
`
	result := Validate(source)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	found := false
	for _, r := range result.Reasons {
		if strings.Contains(r, "construct") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected missing construct reason, got %v", result.Reasons)
	}
}

func TestValidateDeniedCalls(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		reason  string
	}{
		{"input", `x = input("enter: ")`, "input()"},
		{"eval", `y = eval(expr)`, "eval()"},
		{"exec", `exec(code)`, "exec()"},
		{"dunder import", `m = __import__("os")`, "__import__"},
		{"os.system", `os.system("rm -rf /")`, "os.system()"},
		{"subprocess", `import subprocess`, "subprocess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "from manim import *\n\nclass S(Scene):\n    def construct(self):\n        " + tt.snippet + "\n"
			result := Validate(source)
			if result.Valid {
				t.Fatal("expected invalid")
			}
			if !strings.Contains(result.ErrorText(), tt.reason) {
				t.Errorf("expected reason containing %q, got %v", tt.reason, result.Reasons)
			}
		})
	}
}

func TestValidateIgnoresDeniedWordsInStrings(t *testing.T) {
	source := `from manim import *

class S(Scene):
    def construct(self):
        # eval( in a comment is fine
        label = Text("we evaluate eval(x) symbolically")
        self.play(Write(label))
`
	result := Validate(source)
	if !result.Valid {
		t.Errorf("strings and comments should not trip the denylist: %v", result.Reasons)
	}
}

func TestValidateUnbalancedBrackets(t *testing.T) {
	source := `from manim import *

class S(Scene):
    def construct(self):
        pts = [1, 2, 3
        self.wait(1)
`
	result := Validate(source)
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if !strings.Contains(result.ErrorText(), "brackets") {
		t.Errorf("expected unbalanced brackets reason, got %v", result.Reasons)
	}
}

func TestSceneName(t *testing.T) {
	if got := SceneName(goodScene); got != "QuadraticFormula" {
		t.Errorf("expected QuadraticFormula, got %q", got)
	}
	if got := SceneName("print('hi')"); got != "" {
		t.Errorf("expected empty scene name, got %q", got)
	}

	threeD := "from manim import *\n\nclass Surface3D(ThreeDScene):\n    def construct(self):\n        pass\n"
	if got := SceneName(threeD); got != "Surface3D" {
		t.Errorf("expected Surface3D, got %q", got)
	}
}
